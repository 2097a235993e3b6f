package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"agentharvest/config"
	"agentharvest/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or reset the record of already harvested agents.",
}

var historyCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print how many agents have been harvested so far.",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHistory()
		if err != nil {
			return err
		}
		defer h.Close()
		fmt.Fprintln(cmd.OutOrStdout(), h.Count())
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every harvested agent so the next search starts fresh.",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("history clear deletes the harvest history; pass --yes to confirm")
		}
		h, err := openHistory()
		if err != nil {
			return err
		}
		defer h.Close()
		return h.Clear()
	},
}

func init() {
	historyClearCmd.Flags().Bool("yes", false, "confirm deleting the history")
	historyCmd.AddCommand(historyCountCmd, historyClearCmd)
}

func openHistory() (storage.History, error) {
	switch cfg.HistoryBackend {
	case config.HistoryFile:
		path := cfg.HistoryFile
		if path == "" {
			path = storage.DefaultHistoryPath()
		}
		return storage.OpenFileHistory(path, logger), nil
	case config.HistoryPostgres:
		h, err := storage.OpenPostgresHistory(cfg.DSN(), logger)
		if err != nil {
			return nil, err
		}
		return h, nil
	case config.HistoryNone:
		return nopHistory{}, nil
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
}

type nopHistory struct{}

func (nopHistory) Contains(string) bool { return false }
func (nopHistory) AddMany([]string) int { return 0 }
func (nopHistory) Count() int { return 0 }
func (nopHistory) Save() error { return nil }
func (nopHistory) Clear() error { return nil }
func (nopHistory) Close() error { return nil }
