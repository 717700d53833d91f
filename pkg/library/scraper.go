package library

import (
	"context"
	"fmt"
	"time"

	"mymovies/pkg/auth"
	"mymovies/pkg/errors"
	"mymovies/pkg/logger"
	"mymovies/pkg/session"
	"mymovies/pkg/storage"
)

// DefaultMaxPasses is the number of collect/advance rounds in a run
const DefaultMaxPasses = 21

// Observer is told about every finished collection pass
type Observer interface {
	OnPass(pass, maxPasses, seen, added, unique int)
}

// Options controls the collection loop
type Options struct {
	// MaxPasses bounds the number of passes; zero means DefaultMaxPasses
	MaxPasses int
	// StablePasses stops the loop after this many consecutive passes that
	// found nothing new; zero runs all MaxPasses
	StablePasses int
}

// Stats summarizes a run
type Stats struct {
	Passes   int
	Seen     int
	Unique   int
	Duration time.Duration
}

// Scraper drives one export through its states: authenticate, navigate,
// collect, finalize, persist. Each step is allowed only after the previous
// one succeeded, and any failure ends the run.
type Scraper struct {
	session  session.Session
	opts     Options
	observer Observer
	logger   logger.Logger

	state  State
	titles *TitleSet
	final  []string
	stats  Stats
}

// New creates a Scraper that owns sess for the run
func New(sess session.Session, opts Options, log logger.Logger) *Scraper {
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	if opts.StablePasses < 0 {
		opts.StablePasses = 0
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Scraper{
		session: sess,
		opts:    opts,
		logger:  log,
		state:   StateUnauthenticated,
	}
}

// SetObserver registers o to receive per-pass progress
func (s *Scraper) SetObserver(o Observer) {
	s.observer = o
}

// State returns the current state
func (s *Scraper) State() State {
	return s.state
}

// Stats returns the run summary so far
func (s *Scraper) Stats() Stats {
	return s.stats
}

func (s *Scraper) expect(op string, want State) error {
	if s.state != want {
		return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, op, s.state)
	}
	return nil
}

func (s *Scraper) fail(err error) error {
	s.state = StateFailed
	return err
}

// Authenticate logs the session in
func (s *Scraper) Authenticate(ctx context.Context, cred auth.Credential) error {
	if err := s.expect("authenticate", StateUnauthenticated); err != nil {
		return err
	}

	if err := s.session.Authenticate(ctx, cred); err != nil {
		return s.fail(errors.Wrap(errors.ErrorTypeAuth, "authenticate", err, ""))
	}

	s.state = StateAuthenticated
	return nil
}

// Navigate opens the library listing at url
func (s *Scraper) Navigate(ctx context.Context, url string) (session.Page, error) {
	if err := s.expect("navigate", StateAuthenticated); err != nil {
		return nil, err
	}

	page, err := s.session.Navigate(ctx, url)
	if err != nil {
		return nil, s.fail(errors.Wrap(errors.ErrorTypeNavigation, "navigate", err, ""))
	}

	s.state = StateNavigated
	return page, nil
}

// Run collects titles from page, advancing it between passes. It stops after
// MaxPasses, or earlier once StablePasses consecutive passes add nothing.
// The page is not advanced after the last pass.
func (s *Scraper) Run(ctx context.Context, page session.Page) (*TitleSet, error) {
	if err := s.expect("collect", StateNavigated); err != nil {
		return nil, err
	}
	s.state = StateCollecting

	start := time.Now()
	defer func() { s.stats.Duration = time.Since(start) }()

	s.titles = NewTitleSet()
	maxPasses := s.opts.MaxPasses
	quiet := 0

	for pass := 1; pass <= maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(errors.Wrap(errors.ErrorTypeCollection, "run", err, fmt.Sprintf("pass %d", pass)))
		}

		titles, err := page.CollectPass(ctx)
		if err != nil {
			return nil, s.fail(errors.Wrap(errors.ErrorTypeCollection, "run", err, fmt.Sprintf("pass %d", pass)))
		}

		added := s.titles.AddAll(titles)
		s.stats.Passes = pass
		s.stats.Seen += len(titles)
		s.stats.Unique = s.titles.Len()

		logger.LogPass(pass, maxPasses, len(titles), added, s.titles.Len())
		if s.observer != nil {
			s.observer.OnPass(pass, maxPasses, len(titles), added, s.titles.Len())
		}

		if s.opts.StablePasses > 0 {
			if added == 0 {
				quiet++
			} else {
				quiet = 0
			}
			if quiet >= s.opts.StablePasses {
				s.logger.InfoWithFields("No new titles, stopping early", map[string]interface{}{
					"pass":          pass,
					"stable_passes": s.opts.StablePasses,
				})
				break
			}
		}

		if pass == maxPasses {
			break
		}
		if err := page.Advance(ctx); err != nil {
			return nil, s.fail(errors.Wrap(errors.ErrorTypeCollection, "run", err, fmt.Sprintf("advance after pass %d", pass)))
		}
	}

	return s.titles, nil
}

// Finalize dedupes and sorts the collected titles
func (s *Scraper) Finalize() ([]string, error) {
	if err := s.expect("finalize", StateCollecting); err != nil {
		return nil, err
	}

	s.final = Finalize(s.titles)
	s.state = StateFinalized
	return s.final, nil
}

// Persist writes the finalized titles to path
func (s *Scraper) Persist(path string) error {
	if err := s.expect("persist", StateFinalized); err != nil {
		return err
	}

	if err := storage.WriteTitles(path, s.final); err != nil {
		return s.fail(errors.Wrap(errors.ErrorTypePersistence, "persist", err, ""))
	}

	s.logger.InfoWithFields("Titles written", map[string]interface{}{
		"path":   path,
		"titles": len(s.final),
	})
	s.state = StatePersisted
	return nil
}

// Export runs the whole pipeline and returns the titles written to output
func (s *Scraper) Export(ctx context.Context, cred auth.Credential, libraryURL, output string) ([]string, error) {
	if err := s.Authenticate(ctx, cred); err != nil {
		return nil, err
	}

	page, err := s.Navigate(ctx, libraryURL)
	if err != nil {
		return nil, err
	}

	if _, err := s.Run(ctx, page); err != nil {
		return nil, err
	}

	titles, err := s.Finalize()
	if err != nil {
		return nil, err
	}

	if err := s.Persist(output); err != nil {
		return nil, err
	}

	return titles, nil
}
