package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fetcher backends.
const (
	FetcherHTTP   = "http"
	FetcherChrome = "chrome"
)

// History backends.
const (
	HistoryFile     = "file"
	HistoryPostgres = "postgres"
	HistoryNone     = "none"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	// PostgresExport also upserts harvested agents into PostgreSQL.
	PostgresExport bool

	Fetcher          string
	Proxy            string
	Timeout          time.Duration
	CloudflareBypass bool
	DesktopAgents    bool
	ChromeBin        string

	PacingPreset string
	PacingFile   string

	HistoryBackend string
	HistoryFile    string

	CSVOutputPath string
	LogLevel      string

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	envErr := godotenv.Load()

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "harvest"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "harvest123"),
		PostgresDB:       getEnv("POSTGRES_DB", "agents_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresExport:   getEnvBool("HARVEST_POSTGRES_EXPORT", false),

		Fetcher:          strings.ToLower(getEnv("HARVEST_FETCHER", FetcherHTTP)),
		Proxy:            getEnv("HARVEST_PROXY", ""),
		Timeout:          time.Duration(getEnvInt("HARVEST_TIMEOUT_SEC", 30)) * time.Second,
		CloudflareBypass: getEnvBool("HARVEST_CLOUDFLARE_BYPASS", false),
		DesktopAgents:    getEnvBool("HARVEST_DESKTOP_UA", false),
		ChromeBin:        getEnv("CHROME_BIN", ""),

		PacingPreset: strings.ToLower(getEnv("HARVEST_PACING", PresetBalanced)),
		PacingFile:   getEnv("HARVEST_PACING_FILE", ""),

		HistoryBackend: strings.ToLower(getEnv("HARVEST_HISTORY_BACKEND", HistoryFile)),
		HistoryFile:    getEnv("HARVEST_HISTORY_FILE", ""),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/agents.csv"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		EnvFileLoaded: envErr == nil,
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
