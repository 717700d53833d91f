// Package poll waits for page state instead of sleeping for fixed periods.
//
// Until re-checks a condition on a backoff schedule and gives up after a
// bounded timeout; UntilStable waits for a measured value (for example the
// number of rendered titles) to stop changing.
//
//	err := poll.Until(ctx, poll.Every(200*time.Millisecond, 30*time.Second),
//		func(ctx context.Context) (bool, error) {
//			return page.URL() != loginURL, nil
//		})
//	if errors.Is(err, poll.ErrTimeout) {
//		// still on the login page
//	}
package poll
