// Package fetcher provides the page fetchers used by the scraper: a plain
// HTTP session client and a headless Chrome client.
//
// A fetcher holds one browsing session (cookies, user agent, referer chain).
// Runs that need isolated identities must use separate fetchers.
package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"agentharvest/models"
)

// PageFetcher returns the text of the page at url.
//
// Failures carry a models.Kind: KindBlocked when the site rejects the request
// as automated, KindHTTPError for other non-2xx statuses and KindNetworkError
// for transport failures.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Func adapts a plain function to PageFetcher.
type Func func(ctx context.Context, url string) (string, error)

func (f Func) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// classifyStatus turns a response status into a fetch error, or nil for 2xx.
func classifyStatus(url string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return &models.Error{
			Kind:   models.KindBlocked,
			Op:     "fetch " + url,
			Status: status,
			Err:    fmt.Errorf("request rejected as automated; wait or switch proxy before retrying"),
		}
	default:
		return &models.Error{
			Kind:   models.KindHTTPError,
			Op:     "fetch " + url,
			Status: status,
			Err:    fmt.Errorf("unexpected status %s", http.StatusText(status)),
		}
	}
}

func networkError(url string, err error) error {
	return models.NewError(models.KindNetworkError, "fetch "+url, err)
}
