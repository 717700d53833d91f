package browser

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"mymovies/pkg/auth"
	"mymovies/pkg/config"
	"mymovies/pkg/errors"
	"mymovies/pkg/logger"
	"mymovies/pkg/poll"
	"mymovies/pkg/session"
)

const (
	collectJS = `(sel, attr) => Array.from(document.querySelectorAll(sel), el => attr ? (el.getAttribute(attr) || '') : el.textContent)`
	countJS   = `(sel) => document.querySelectorAll(sel).length`
	statusJS  = `() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`
)

// Session drives a headless Chrome tab
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	site     config.SiteConfig
	scrape   config.ScrapeConfig
	ownsData bool
	logger   logger.Logger
	closed   bool
}

var _ session.Session = (*Session)(nil)

// New launches Chrome and opens the tab the run works in
func New(cfg *config.Config, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	l := launcher.New().
		Headless(cfg.Browser.Headless).
		NoSandbox(cfg.Browser.NoSandbox)

	if cfg.Browser.Bin != "" {
		l = l.Bin(cfg.Browser.Bin)
	}
	if cfg.Browser.UserDataDir != "" {
		l = l.UserDataDir(cfg.Browser.UserDataDir)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeBrowser, "launch", err, "failed to launch browser")
	}
	log.DebugWithFields("Browser launched", map[string]interface{}{
		"control_url": controlURL,
		"headless":    cfg.Browser.Headless,
	})

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, errors.Wrap(errors.ErrorTypeBrowser, "connect", err, "failed to connect to browser")
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		return nil, errors.Wrap(errors.ErrorTypeBrowser, "open tab", err, "failed to create page")
	}

	if cfg.Browser.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			log.WithError(err).Warn("Stealth injection failed, proceeding without stealth")
		}
	}

	return &Session{
		launcher: l,
		browser:  b,
		page:     page,
		site:     cfg.Site,
		scrape:   cfg.Scrape,
		ownsData: cfg.Browser.UserDataDir == "",
		logger:   log,
	}, nil
}

// Authenticate fills the login form and waits until the browser leaves the
// login page. Staying on it past the login timeout means the credentials
// were rejected.
func (s *Session) Authenticate(ctx context.Context, cred auth.Credential) error {
	if s.site.LoginURL == "" {
		s.logger.Debug("No login URL configured, skipping login")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.scrape.LoginTimeout)
	defer cancel()
	p := s.page.Context(ctx)

	if err := p.Navigate(s.site.LoginURL); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to open login page")
	}
	if err := p.WaitLoad(); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "login page did not load")
	}

	userEl, err := p.Element(session.FieldSelector(s.site.UsernameField))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, fmt.Sprintf("username field %q not found", s.site.UsernameField))
	}
	passEl, err := p.Element(session.FieldSelector(s.site.PasswordField))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, fmt.Sprintf("password field %q not found", s.site.PasswordField))
	}

	if err := userEl.Input(cred.Username); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to type username")
	}
	if err := passEl.Input(cred.Password); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to type password")
	}

	if s.site.SubmitSelector != "" {
		submit, err := p.Element(s.site.SubmitSelector)
		if err != nil {
			return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, fmt.Sprintf("submit button %q not found", s.site.SubmitSelector))
		}
		if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to click submit")
		}
	} else if err := passEl.Type(input.Enter); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed to submit login form")
	}

	err = poll.Until(ctx, poll.Every(s.scrape.SettleInterval, 0), func(ctx context.Context) (bool, error) {
		info, err := s.page.Context(ctx).Info()
		if err != nil {
			return false, err
		}
		return !sameDocument(info.URL, s.site.LoginURL), nil
	})
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return errors.New(errors.ErrorTypeAuth, "authenticate",
				fmt.Sprintf("still on the login page after %s, credentials were not accepted", s.scrape.LoginTimeout))
		}
		return errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, "failed waiting for login")
	}

	s.logger.Info("Logged in")
	return nil
}

// Navigate opens the library listing
func (s *Session) Navigate(ctx context.Context, target string) (session.Page, error) {
	navCtx, cancel := context.WithTimeout(ctx, s.scrape.NavigationTimeout)
	defer cancel()
	p := s.page.Context(navCtx)

	start := time.Now()
	if err := p.Navigate(target); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNavigation, "navigate", err, fmt.Sprintf("failed to open %s", target))
	}
	if err := p.WaitLoad(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNavigation, "navigate", err, "page did not load")
	}

	if res, err := p.Eval(statusJS); err == nil {
		if status := res.Value.Int(); status >= 400 {
			return nil, errors.New(errors.ErrorTypeNavigation, "navigate", fmt.Sprintf("%s returned status %d", target, status))
		}
	}

	s.logger.DebugWithFields("Library page loaded", map[string]interface{}{
		"url":      target,
		"duration": time.Since(start),
	})

	return &Page{
		page:   s.page,
		site:   s.site,
		scrape: s.scrape,
		logger: s.logger,
	}, nil
}

// Close closes the browser and removes its temporary profile
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.browser.Close()
	if s.ownsData {
		s.launcher.Cleanup()
	}
	if err != nil {
		return errors.Wrap(errors.ErrorTypeBrowser, "close", err, "failed to close browser")
	}
	return nil
}

// sameDocument compares two URLs ignoring query and fragment
func sameDocument(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return a == b
	}
	ub, err := url.Parse(b)
	if err != nil {
		return a == b
	}
	return ua.Host == ub.Host && ua.Path == ub.Path
}
