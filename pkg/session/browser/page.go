package browser

import (
	"context"
	stderrors "errors"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"mymovies/pkg/config"
	"mymovies/pkg/errors"
	"mymovies/pkg/logger"
	"mymovies/pkg/poll"
	"mymovies/pkg/session"
)

// Page is the library listing rendered in the session's tab
type Page struct {
	page   *rod.Page
	site   config.SiteConfig
	scrape config.ScrapeConfig
	logger logger.Logger
}

var _ session.Page = (*Page)(nil)

// CollectPass reads the title of every element matching the title selector
func (p *Page) CollectPass(ctx context.Context) ([]string, error) {
	res, err := p.page.Context(ctx).Eval(collectJS, p.site.TitleSelector, p.site.TitleAttribute)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeCollection, "collect", err, "failed to read titles")
	}

	values := res.Value.Arr()
	raw := make([]string, 0, len(values))
	for _, v := range values {
		raw = append(raw, v.Str())
	}

	return session.CleanTitles(raw), nil
}

// Advance presses PAGE_DOWN and waits for the number of rendered titles to
// stop changing. Content that is still loading when the settle timeout runs
// out is picked up by the next pass.
func (p *Page) Advance(ctx context.Context) error {
	for i := 0; i < p.scrape.PageDownPresses; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrorTypeCollection, "advance", err, "")
		}
		if err := p.page.Keyboard.Type(input.PageDown); err != nil {
			return errors.Wrap(errors.ErrorTypeCollection, "advance", err, "failed to press PAGE_DOWN")
		}
	}

	if p.scrape.SettleTimeout <= 0 {
		return nil
	}

	count, err := poll.UntilStable(ctx,
		poll.Every(p.scrape.SettleInterval, p.scrape.SettleTimeout),
		p.scrape.SettleChecks,
		p.count,
	)
	if stderrors.Is(err, poll.ErrTimeout) {
		p.logger.DebugWithFields("Page did not settle before timeout", map[string]interface{}{
			"elements": count,
			"timeout":  p.scrape.SettleTimeout,
		})
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrorTypeCollection, "advance", err, "failed waiting for content")
	}

	return nil
}

func (p *Page) count(ctx context.Context) (int, error) {
	res, err := p.page.Context(ctx).Eval(countJS, p.site.TitleSelector)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}
