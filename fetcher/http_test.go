package fetcher

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentharvest/models"
)

type referers struct {
	mu   sync.Mutex
	seen map[string]string
	hits []string
}

func (r *referers) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[req.URL.Path] = req.Header.Get("Referer")
	r.hits = append(r.hits, req.URL.Path)
}

func newTestServer(t *testing.T) (*httptest.Server, *referers) {
	t.Helper()
	refs := &referers{seen: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		refs.record(r)
		switch r.URL.Path {
		case "/blocked":
			w.WriteHeader(http.StatusForbidden)
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte("<html>" + r.URL.Path + "</html>"))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, refs
}

func newTestFetcher(t *testing.T, homepage string) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(HTTPOptions{
		Homepage: homepage,
		Rand:     rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	return f
}

func TestHTTPFetcherRefererChain(t *testing.T) {
	srv, refs := newTestServer(t)
	f := newTestFetcher(t, srv.URL+"/home")
	ctx := context.Background()

	body, err := f.Fetch(ctx, srv.URL+"/page1")
	require.NoError(t, err)
	assert.Equal(t, "<html>/page1</html>", body)

	_, err = f.Fetch(ctx, srv.URL+"/page2")
	require.NoError(t, err)

	assert.Equal(t, []string{"/home", "/page1", "/page2"}, refs.hits, "warm-up happens once, first")
	assert.Equal(t, "", refs.seen["/home"])
	assert.Equal(t, srv.URL+"/home", refs.seen["/page1"])
	assert.Equal(t, srv.URL+"/page1", refs.seen["/page2"])
}

func TestHTTPFetcherWarmupDisabled(t *testing.T) {
	srv, refs := newTestServer(t)
	f := newTestFetcher(t, "-")

	_, err := f.Fetch(context.Background(), srv.URL+"/page1")
	require.NoError(t, err)

	assert.Equal(t, []string{"/page1"}, refs.hits)
	assert.Equal(t, "", refs.seen["/page1"])
}

func TestHTTPFetcherStatusKinds(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path   string
		kind   models.Kind
		status int
	}{
		{"/blocked", models.KindBlocked, http.StatusForbidden},
		{"/limited", models.KindBlocked, http.StatusTooManyRequests},
		{"/boom", models.KindHTTPError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := newTestFetcher(t, "-")
			_, err := f.Fetch(context.Background(), srv.URL+tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.kind, models.KindOf(err))

			var me *models.Error
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.status, me.Status)
		})
	}
}

func TestHTTPFetcherNetworkError(t *testing.T) {
	srv, _ := newTestServer(t)
	url := srv.URL + "/page1"
	srv.Close()

	f := newTestFetcher(t, "-")
	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNetworkError))
}

func TestHTTPFetcherKeepsOneIdentity(t *testing.T) {
	f := newTestFetcher(t, "-")
	assert.Contains(t, mobileUserAgents, f.UserAgent())

	desktop, err := NewHTTPFetcher(HTTPOptions{DesktopAgents: true})
	require.NoError(t, err)
	assert.Contains(t, desktopUserAgents, desktop.UserAgent())

	h := f.headers("https://www.zillow.com/")
	assert.Equal(t, "same-origin", h["Sec-Fetch-Site"])
	assert.Equal(t, f.UserAgent(), h["User-Agent"])
	assert.NotContains(t, f.headers(""), "Referer")
}
