package static

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"mymovies/pkg/auth"
	"mymovies/pkg/config"
	"mymovies/pkg/errors"
	"mymovies/pkg/logger"
	"mymovies/pkg/session"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Session is a cookie-carrying HTTP session. It submits the login form as
// a browser would and parses listings without running scripts.
type Session struct {
	client  *resty.Client
	limiter *rate.Limiter
	site    config.SiteConfig
	static  config.StaticConfig
	logger  logger.Logger
}

var _ session.Session = (*Session)(nil)

// New creates an HTTP session with an empty cookie jar
func New(cfg *config.Config, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	userAgent := cfg.Static.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetTimeout(cfg.Static.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.Static.MaxRedirects))
	client.SetHeaders(map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Cache-Control":   "no-cache",
	})

	limit := rate.Inf
	if cfg.Static.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.Static.RequestsPerSecond)
	}
	burst := cfg.Static.Burst
	if burst < 1 {
		burst = 1
	}

	return &Session{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		site:    cfg.Site,
		static:  cfg.Static,
		logger:  log,
	}, nil
}

// Authenticate fetches the login page, fills the form that holds the
// password field and posts it. The login is rejected on a 401/403 or when
// the response still shows the password field.
func (s *Session) Authenticate(ctx context.Context, cred auth.Credential) error {
	if s.site.LoginURL == "" {
		s.logger.Debug("No login URL configured, skipping login")
		return nil
	}

	res, err := s.get(ctx, s.site.LoginURL)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to fetch login page")
	}
	if err := checkResponseStatus(res); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to fetch login page")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to parse login page")
	}

	userInput := doc.Find(session.FieldSelector(s.site.UsernameField)).First()
	if userInput.Length() == 0 {
		return errors.New(errors.ErrorTypeAuth, "authenticate", fmt.Sprintf("username field %q not found", s.site.UsernameField))
	}
	passInput := doc.Find(session.FieldSelector(s.site.PasswordField)).First()
	if passInput.Length() == 0 {
		return errors.New(errors.ErrorTypeAuth, "authenticate", fmt.Sprintf("password field %q not found", s.site.PasswordField))
	}

	form := passInput.Closest("form")
	values := formValues(form)
	values[userInput.AttrOr("name", s.site.UsernameField)] = cred.Username
	values[passInput.AttrOr("name", s.site.PasswordField)] = cred.Password

	action, err := resolveAction(finalURL(res, s.site.LoginURL), form.AttrOr("action", ""))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "invalid form action")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "")
	}
	res, err = s.client.R().
		SetContext(ctx).
		SetHeader("Referer", s.site.LoginURL).
		SetFormData(values).
		Post(action)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to submit login form")
	}

	switch status := res.StatusCode(); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.New(errors.ErrorTypeAuth, "authenticate", fmt.Sprintf("login rejected with status %d", status))
	case status >= 400:
		return errors.New(errors.ErrorTypeAuth, "authenticate", fmt.Sprintf("login failed with status %d", status))
	}

	after, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to parse login response")
	}
	if after.Find(session.FieldSelector(s.site.PasswordField)).Length() > 0 {
		return errors.New(errors.ErrorTypeAuth, "authenticate", "login form shown again, credentials were not accepted")
	}

	s.logger.Info("Logged in")
	return nil
}

// Navigate fetches the library listing. A file:// URL or a plain path reads
// a saved page from disk instead.
func (s *Session) Navigate(ctx context.Context, target string) (session.Page, error) {
	if path, ok := localPath(target); ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeNavigation, "navigate", err, "failed to read saved page")
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeNavigation, "navigate", err, "failed to parse saved page")
		}
		s.logger.DebugWithFields("Library page read from disk", map[string]interface{}{
			"path": path,
		})
		return &Page{doc: doc, site: s.site, logger: s.logger}, nil
	}

	start := time.Now()
	res, err := s.get(ctx, target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNavigation, "navigate", err, fmt.Sprintf("failed to fetch %s", target))
	}
	if err := checkResponseStatus(res); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNavigation, "navigate", err, "")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNavigation, "navigate", err, "failed to parse library page")
	}

	s.logger.DebugWithFields("Library page loaded", map[string]interface{}{
		"url":      target,
		"status":   res.StatusCode(),
		"duration": time.Since(start),
	})

	return &Page{
		session: s,
		url:     finalURL(res, target),
		doc:     doc,
		number:  1,
		site:    s.site,
		logger:  s.logger,
	}, nil
}

// Close is a no-op; the cookie jar lives only in memory
func (s *Session) Close() error {
	return nil
}

// get performs a paced GET request
func (s *Session) get(ctx context.Context, target string) (*resty.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.client.R().SetContext(ctx).Get(target)
	if err != nil {
		s.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      target,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, err
	}

	s.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      target,
		"status":   res.StatusCode(),
		"duration": time.Since(start),
	})
	return res, nil
}

// statusError is a non-success HTTP response
type statusError struct {
	Code int
	URL  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.Code)
}

// checkResponseStatus turns any status >= 400 into a statusError
func checkResponseStatus(res *resty.Response) error {
	if res.StatusCode() >= 400 {
		return &statusError{Code: res.StatusCode(), URL: res.Request.URL}
	}
	return nil
}

// formValues collects the values a browser would submit with form, minus
// buttons and unchecked boxes
func formValues(form *goquery.Selection) map[string]string {
	values := make(map[string]string)
	form.Find("input").Each(func(_ int, in *goquery.Selection) {
		name, ok := in.Attr("name")
		if !ok || name == "" {
			return
		}
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); !checked {
				return
			}
			values[name] = in.AttrOr("value", "on")
			return
		}
		values[name] = in.AttrOr("value", "")
	})
	return values
}

// resolveAction returns the absolute URL a form posts to
func resolveAction(pageURL, action string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	if action == "" {
		return base.String(), nil
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// finalURL is the URL the response came from after redirects
func finalURL(res *resty.Response, fallback string) string {
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		return res.RawResponse.Request.URL.String()
	}
	return fallback
}

// localPath reports whether target names a file on disk
func localPath(target string) (string, bool) {
	u, err := url.Parse(target)
	if err != nil {
		return target, true
	}
	switch u.Scheme {
	case "file":
		return u.Path, true
	case "":
		return target, true
	}
	return "", false
}
