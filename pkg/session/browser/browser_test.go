package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mymovies/pkg/auth"
	"mymovies/pkg/config"
	"mymovies/pkg/errors"
	"mymovies/pkg/logger"
)

const loginPage = `<html><body>
<form method="post" action="/login">
  <input name="email" type="text">
  <input name="password" type="password">
  <button class="custom-button" type="submit">Sign in</button>
</form>
</body></html>`

// the listing grows by one row each time the page is scrolled to the bottom
const libraryPage = `<html><body style="height:4000px">
<div class="border"><img class="gwt-Image" alt="Inception"></div>
<div class="border"><img class="gwt-Image" alt=" Up "></div>
<div class="border"><img class="gwt-Image" alt=""></div>
<script>
window.addEventListener('scroll', () => {
  if (document.querySelectorAll('.gwt-Image').length < 4) {
    const d = document.createElement('div');
    d.className = 'border';
    d.innerHTML = '<img class="gwt-Image" alt="Amélie">';
    document.body.appendChild(d);
  }
});
</script>
</body></html>`

func TestSameDocument(t *testing.T) {
	login := "https://my.example.com/MyLogin.html?type=sign_in&url=x"

	assert.True(t, sameDocument("https://my.example.com/MyLogin.html", login))
	assert.True(t, sameDocument("https://my.example.com/MyLogin.html#retry", login))
	assert.False(t, sameDocument("https://www.example.com/", login))
	assert.False(t, sameDocument("https://my.example.com/Home.html", login))
}

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/MyLogin.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("email") == "viewer@example.com" && r.FormValue("password") == "popcorn" {
			http.Redirect(w, r, "/movies", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/MyLogin.html?error=1", http.StatusSeeOther)
	})
	mux.HandleFunc("/movies", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, libraryPage)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newBrowserSession(t *testing.T, srv *httptest.Server) *Session {
	t.Helper()

	if os.Getenv("MYMOVIES_BROWSER_TESTS") != "1" {
		t.Skip("set MYMOVIES_BROWSER_TESTS=1 to run tests that launch Chrome")
	}

	cfg := config.DefaultConfig()
	cfg.Site.LoginURL = srv.URL + "/MyLogin.html"
	cfg.Site.LibraryURL = srv.URL + "/movies"
	cfg.Scrape.LoginTimeout = 10 * time.Second
	cfg.Scrape.SettleTimeout = 2 * time.Second
	cfg.Scrape.SettleInterval = 50 * time.Millisecond
	cfg.Scrape.PageDownPresses = 3
	cfg.Browser.NoSandbox = true

	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBrowserSessionScrape(t *testing.T) {
	srv := newSiteServer(t)
	s := newBrowserSession(t, srv)
	ctx := context.Background()

	require.NoError(t, s.Authenticate(ctx, auth.Credential{Username: "viewer@example.com", Password: "popcorn"}))

	page, err := s.Navigate(ctx, srv.URL+"/movies")
	require.NoError(t, err)

	titles, err := page.CollectPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inception", "Up"}, titles)

	require.NoError(t, page.Advance(ctx))

	titles, err = page.CollectPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inception", "Up", "Amélie"}, titles)
}

func TestBrowserSessionRejectedLogin(t *testing.T) {
	srv := newSiteServer(t)
	s := newBrowserSession(t, srv)
	s.scrape.LoginTimeout = 2 * time.Second

	err := s.Authenticate(context.Background(), auth.Credential{Username: "viewer@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeAuth), "got %v", err)
}

func TestBrowserSessionNavigateNotFound(t *testing.T) {
	srv := newSiteServer(t)
	s := newBrowserSession(t, srv)

	_, err := s.Navigate(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeNavigation), "got %v", err)
}

func TestBrowserSessionSkipsLoginWithoutURL(t *testing.T) {
	srv := newSiteServer(t)
	s := newBrowserSession(t, srv)
	s.site.LoginURL = ""

	assert.NoError(t, s.Authenticate(context.Background(), auth.Credential{}))
}
