package library

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mymovies/pkg/auth"
	"mymovies/pkg/errors"
	"mymovies/pkg/logger"
	"mymovies/pkg/session"
	"mymovies/pkg/storage"
)

// fakeSession serves passes[i] on the i-th CollectPass; the last entry
// repeats once the list runs out
type fakeSession struct {
	passes    [][]string
	authErr   error
	navErr    error
	failPass  int
	failErr   error
	page      *fakePage
	authCalls int
	navURL    string
}

func (f *fakeSession) Authenticate(ctx context.Context, cred auth.Credential) error {
	f.authCalls++
	return f.authErr
}

func (f *fakeSession) Navigate(ctx context.Context, url string) (session.Page, error) {
	f.navURL = url
	if f.navErr != nil {
		return nil, f.navErr
	}
	f.page = &fakePage{session: f}
	return f.page, nil
}

func (f *fakeSession) Close() error { return nil }

type fakePage struct {
	session  *fakeSession
	collects int
	advances int
	cancel   context.CancelFunc
	cancelAt int
}

func (p *fakePage) CollectPass(ctx context.Context) ([]string, error) {
	p.collects++
	if p.session.failPass == p.collects {
		return nil, p.session.failErr
	}
	if len(p.session.passes) == 0 {
		return []string{}, nil
	}
	i := p.collects - 1
	if i >= len(p.session.passes) {
		i = len(p.session.passes) - 1
	}
	return p.session.passes[i], nil
}

func (p *fakePage) Advance(ctx context.Context) error {
	p.advances++
	if p.cancel != nil && p.advances == p.cancelAt {
		p.cancel()
	}
	return nil
}

type recordingObserver struct {
	calls [][5]int
}

func (r *recordingObserver) OnPass(pass, maxPasses, seen, added, unique int) {
	r.calls = append(r.calls, [5]int{pass, maxPasses, seen, added, unique})
}

var testCred = auth.Credential{Username: "viewer@example.com", Password: "popcorn"}

func TestTitleSet(t *testing.T) {
	s := NewTitleSet("Up")

	assert.True(t, s.Add("Inception"))
	assert.False(t, s.Add("Up"))
	assert.Equal(t, 1, s.AddAll([]string{"Up", "Inception", "Amélie", "Amélie"}))
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains("Amélie"))
	assert.False(t, s.Contains("amélie"))
}

func TestFinalize(t *testing.T) {
	set := NewTitleSet("Inception", "Up", "Up", "Amélie")

	got := Finalize(set)
	assert.Equal(t, []string{"Amélie", "Inception", "Up"}, got)

	// calling again, or finalizing the output, gives the same list
	assert.Equal(t, got, Finalize(set))
	assert.Equal(t, got, Finalize(NewTitleSet(got...)))

	assert.Equal(t, []string{}, Finalize(nil))
	assert.Equal(t, []string{}, Finalize(NewTitleSet()))
}

func TestFinalizeProperties(t *testing.T) {
	inputs := [][]string{
		{"b", "a", "b", "c", "a"},
		{"Zorro", "alien", "Alien", "?", "10 Things", "2 Fast"},
		{"Ébène", "Eve", "Été", "eve"},
		{"same", "same", "same"},
	}

	for i, in := range inputs {
		t.Run(fmt.Sprintf("input %d", i), func(t *testing.T) {
			out := Finalize(NewTitleSet(in...))

			assert.True(t, sort.StringsAreSorted(out), "output not sorted: %v", out)

			seen := map[string]bool{}
			for _, title := range out {
				assert.False(t, seen[title], "duplicate %q", title)
				seen[title] = true
			}
			for _, title := range in {
				assert.True(t, seen[title], "missing %q", title)
			}
		})
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	sess := &fakeSession{passes: [][]string{
		{"Inception", "Up"},
		{"Up", "Amélie"},
	}}

	observer := &recordingObserver{}
	s := New(sess, Options{}, logger.NewNopLogger())
	s.SetObserver(observer)

	titles, err := s.Export(context.Background(), testCred, "https://example.com/my_movies", path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Amélie", "Inception", "Up"}, titles)
	assert.Equal(t, StatePersisted, s.State())
	assert.Equal(t, 1, sess.authCalls)
	assert.Equal(t, "https://example.com/my_movies", sess.navURL)

	// 21 passes and no advance after the last one
	assert.Equal(t, DefaultMaxPasses, sess.page.collects)
	assert.Equal(t, DefaultMaxPasses-1, sess.page.advances)

	require.Len(t, observer.calls, DefaultMaxPasses)
	assert.Equal(t, [5]int{1, 21, 2, 2, 2}, observer.calls[0])
	assert.Equal(t, [5]int{2, 21, 2, 1, 3}, observer.calls[1])
	assert.Equal(t, [5]int{21, 21, 2, 0, 3}, observer.calls[20])

	stats := s.Stats()
	assert.Equal(t, 21, stats.Passes)
	assert.Equal(t, 3, stats.Unique)
	assert.Equal(t, 42, stats.Seen)

	written, err := storage.ReadTitles(path)
	require.NoError(t, err)
	assert.Equal(t, titles, written)
}

func TestExportNoTitles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	s := New(&fakeSession{}, Options{}, logger.NewNopLogger())

	titles, err := s.Export(context.Background(), testCred, "https://example.com", path)
	require.NoError(t, err)
	assert.Empty(t, titles)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestExportFailsOnPassTwo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	sess := &fakeSession{
		passes:   [][]string{{"Up"}},
		failPass: 2,
		failErr:  stderrors.New("element went stale"),
	}
	s := New(sess, Options{MaxPasses: 21}, logger.NewNopLogger())

	_, err := s.Export(context.Background(), testCred, "https://example.com", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeCollection), "got %v", err)
	assert.Contains(t, err.Error(), "pass 2")
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, 1, sess.page.advances)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no CSV should be written")
}

func TestExportAuthAndNavigationErrors(t *testing.T) {
	tests := []struct {
		name string
		sess *fakeSession
		want errors.ErrorType
	}{
		{
			name: "rejected login",
			sess: &fakeSession{authErr: errors.New(errors.ErrorTypeAuth, "authenticate", "rejected")},
			want: errors.ErrorTypeAuth,
		},
		{
			name: "uncategorized login failure",
			sess: &fakeSession{authErr: stderrors.New("connection reset")},
			want: errors.ErrorTypeAuth,
		},
		{
			name: "library page missing",
			sess: &fakeSession{navErr: stderrors.New("status 404")},
			want: errors.ErrorTypeNavigation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "movies.csv")
			s := New(tt.sess, Options{}, logger.NewNopLogger())

			_, err := s.Export(context.Background(), testCred, "https://example.com", path)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.TypeOf(err))
			assert.Equal(t, StateFailed, s.State())

			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRunStablePasses(t *testing.T) {
	sess := &fakeSession{passes: [][]string{
		{"A"},
		{"A", "B"},
		{"B"},
		{"A", "B"},
		{"C"},
	}}
	s := New(sess, Options{MaxPasses: 21, StablePasses: 2}, logger.NewNopLogger())

	require.NoError(t, s.Authenticate(context.Background(), testCred))
	page, err := s.Navigate(context.Background(), "https://example.com")
	require.NoError(t, err)

	set, err := s.Run(context.Background(), page)
	require.NoError(t, err)

	// passes 3 and 4 add nothing, so the loop ends before C shows up
	assert.Equal(t, 4, sess.page.collects)
	assert.Equal(t, 3, sess.page.advances)
	assert.Equal(t, []string{"A", "B"}, Finalize(set))
}

func TestRunSinglePass(t *testing.T) {
	sess := &fakeSession{passes: [][]string{{"Up"}}}
	s := New(sess, Options{MaxPasses: 1}, logger.NewNopLogger())

	require.NoError(t, s.Authenticate(context.Background(), testCred))
	page, err := s.Navigate(context.Background(), "https://example.com")
	require.NoError(t, err)

	_, err = s.Run(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.page.collects)
	assert.Zero(t, sess.page.advances)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := &fakeSession{passes: [][]string{{"Up"}}}
	s := New(sess, Options{}, logger.NewNopLogger())

	require.NoError(t, s.Authenticate(ctx, testCred))
	page, err := s.Navigate(ctx, "https://example.com")
	require.NoError(t, err)
	sess.page.cancel = cancel
	sess.page.cancelAt = 3

	_, err = s.Run(ctx, page)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeCanceled, errors.TypeOf(err))
	assert.Equal(t, 3, sess.page.collects)
	assert.Equal(t, 130, errors.ExitCode(err))
}

func TestStateOrder(t *testing.T) {
	ctx := context.Background()
	sess := &fakeSession{passes: [][]string{{"Up"}}}
	s := New(sess, Options{MaxPasses: 2}, logger.NewNopLogger())

	_, err := s.Navigate(ctx, "https://example.com")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Run(ctx, &fakePage{session: sess})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Finalize()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, s.Persist(filepath.Join(t.TempDir(), "x.csv")), ErrInvalidState)
	assert.Equal(t, StateUnauthenticated, s.State())

	require.NoError(t, s.Authenticate(ctx, testCred))
	assert.ErrorIs(t, s.Authenticate(ctx, testCred), ErrInvalidState)
	assert.Equal(t, 1, sess.authCalls)
	assert.Equal(t, StateAuthenticated, s.State())

	page, err := s.Navigate(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, StateNavigated, s.State())

	_, err = s.Run(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, StateCollecting, s.State())

	_, err = s.Run(ctx, page)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, StateFinalized, s.State())

	require.NoError(t, s.Persist(filepath.Join(t.TempDir(), "movies.csv")))
	assert.Equal(t, StatePersisted, s.State())
	assert.ErrorIs(t, s.Persist(filepath.Join(t.TempDir(), "again.csv")), ErrInvalidState)
}

func TestFailedRunRefusesFurtherSteps(t *testing.T) {
	sess := &fakeSession{authErr: stderrors.New("nope")}
	s := New(sess, Options{}, logger.NewNopLogger())

	require.Error(t, s.Authenticate(context.Background(), testCred))
	assert.ErrorIs(t, s.Authenticate(context.Background(), testCred), ErrInvalidState)
	_, err := s.Navigate(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRunLogsPasses(t *testing.T) {
	testLog := logger.NewTestLogger()
	prev := logger.GetLogger()
	logger.SetLogger(testLog)
	defer logger.SetLogger(prev)

	sess := &fakeSession{passes: [][]string{{"Up", "Heat"}}}
	s := New(sess, Options{MaxPasses: 3}, testLog)

	require.NoError(t, s.Authenticate(context.Background(), testCred))
	page, err := s.Navigate(context.Background(), "https://example.com")
	require.NoError(t, err)
	_, err = s.Run(context.Background(), page)
	require.NoError(t, err)

	passes := 0
	for _, m := range testLog.GetMessagesByLevel("DEBUG") {
		if m.Message == "Collection pass finished" {
			passes++
		}
	}
	assert.Equal(t, 3, passes)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "collecting", StateCollecting.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}
