package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/reader/models"
)

const staticPage = `<!DOCTYPE html>
<html>
<head><title> Release Notes </title><style>body{color:red}</style></head>
<body>
  <nav>Home</nav>
  <article>
    <h1>Version 2.0</h1>
    <p>This release rewrites the storage layer, adds streaming exports and drops
    support for the legacy configuration format. Upgrade notes follow below.</p>
    <p>Existing deployments should migrate their configuration files before
    upgrading, then restart every worker so the new storage layer is picked up.</p>
    <p>Exports now stream rows as they are produced instead of buffering the
    whole result, which keeps memory flat for very large tables.</p>
  </article>
  <script>var tracking = true;</script>
</body>
</html>`

func TestHTTPEngine_SingleSnapshot(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Test")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, staticPage)
	}))
	defer srv.Close()

	eng := NewHTTPEngine(5*time.Second, "")
	s, err := eng.Scrape(context.Background(), &models.ScrapeRequest{
		URL:     srv.URL + "/notes",
		Headers: map[string]string{"X-Test": "yes"},
	})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http", got.Engine)
	assert.Equal(t, "Release Notes", got.Title)
	assert.Equal(t, srv.URL+"/notes", got.Href)
	assert.Contains(t, got.Text, "Version 2.0")
	assert.NotContains(t, got.Text, "tracking")
	assert.NotContains(t, got.Text, "color:red")
	require.NotNil(t, got.Parsed)
	assert.Contains(t, got.Parsed.Content, "storage layer")
	assert.Equal(t, "yes", gotHeader)

	_, err = s.Next(context.Background())
	assert.True(t, errors.Is(err, io.EOF))
}

func TestHTTPEngine_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, staticPage)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := NewHTTPEngine(0, "").Scrape(context.Background(), &models.ScrapeRequest{URL: srv.URL + "/old"})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", got.Href)
}

func TestHTTPEngine_FailsOnNonHTML(t *testing.T) {
	tests := []struct {
		name   string
		status int
		ctype  string
	}{
		{name: "error status", status: http.StatusForbidden, ctype: "text/html"},
		{name: "json body", status: http.StatusOK, ctype: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.ctype)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, "{}")
			}))
			defer srv.Close()

			s, err := NewHTTPEngine(time.Second, "").Scrape(context.Background(), &models.ScrapeRequest{URL: srv.URL})
			require.NoError(t, err)
			defer s.Close()

			_, err = s.Next(context.Background())
			assert.Equal(t, models.ErrCodeNavigation, models.ErrorCode(err))
		})
	}
}

func TestHTTPEngine_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s, err := NewHTTPEngine(50*time.Millisecond, "").Scrape(context.Background(), &models.ScrapeRequest{URL: srv.URL})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Next(context.Background())
	assert.Equal(t, models.ErrCodeTimeout, models.ErrorCode(err))
}

func TestExtractVisibleText(t *testing.T) {
	text := extractVisibleText([]byte(`<html><head><title>x</title></head><body><p>a</p><script>b</script><noscript>c</noscript><p> d </p></body></html>`))
	assert.Equal(t, "a d", text)
	assert.Equal(t, "", extractTitle([]byte(`<html><body>no title</body></html>`)))
}
