// Package library turns a session into a sorted, deduplicated title list.
//
// A run moves through fixed states:
//
//	Unauthenticated -> Authenticated -> Navigated -> Collecting -> Finalized -> Persisted
//
// Scraper enforces the order. Calling a step out of order returns
// ErrInvalidState and changes nothing; a failing step moves the run to
// StateFailed, after which every step is refused.
//
// Run alternates CollectPass and Advance on the page for up to MaxPasses
// passes (21 by default), adding each pass's titles to a TitleSet. With
// StablePasses set, the loop ends after that many passes in a row found no
// new title. Finalize returns the set in ascending byte order.
//
// Usage:
//
//	s := library.New(sess, library.Options{MaxPasses: 21}, log)
//	s.SetObserver(tracker)
//	titles, err := s.Export(ctx, cred, cfg.Site.LibraryURL, cfg.Output.Path)
package library
