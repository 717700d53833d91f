package static

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"mymovies/pkg/config"
	"mymovies/pkg/errors"
	"mymovies/pkg/logger"
	"mymovies/pkg/session"
)

// Page is a parsed library listing. When the session has a page parameter
// configured, Advance swaps in the next page of the listing.
type Page struct {
	session *Session
	url     string
	doc     *goquery.Document
	number  int
	done    bool
	site    config.SiteConfig
	logger  logger.Logger
}

var _ session.Page = (*Page)(nil)

// CollectPass returns the titles in the current document. After the listing
// runs out of pages it returns no titles.
func (p *Page) CollectPass(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeCollection, "collect", err, "")
	}
	if p.doc == nil {
		return []string{}, nil
	}

	raw := make([]string, 0)
	p.doc.Find(p.site.TitleSelector).Each(func(_ int, sel *goquery.Selection) {
		if p.site.TitleAttribute == "" {
			raw = append(raw, sel.Text())
			return
		}
		raw = append(raw, sel.AttrOr(p.site.TitleAttribute, ""))
	})

	return session.CleanTitles(raw), nil
}

// Advance fetches the next page when pagination is configured. A 404 marks
// the end of the listing.
func (p *Page) Advance(ctx context.Context) error {
	if p.session == nil || p.session.static.PageParam == "" || p.done {
		return nil
	}

	next, err := pageURL(p.url, p.session.static.PageParam, p.number+1)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeCollection, "advance", err, "failed to build next page URL")
	}

	res, err := p.session.get(ctx, next)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeCollection, "advance", err, "failed to fetch next page")
	}
	if err := checkResponseStatus(res); err != nil {
		var se *statusError
		if stderrors.As(err, &se) && se.Code == http.StatusNotFound {
			p.logger.DebugWithFields("Listing has no more pages", map[string]interface{}{
				"last_page": p.number,
			})
			p.doc = nil
			p.done = true
			return nil
		}
		return errors.Wrap(errors.ErrorTypeCollection, "advance", err, "")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeCollection, "advance", err, "failed to parse next page")
	}

	p.doc = doc
	p.number++
	return nil
}

// pageURL sets param=n on the query of raw
func pageURL(raw, param string, n int) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
