package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/content"
	"github.com/JakeFAU/cityhall/internal/normalize"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]content.Response
	errs  map[string]error
	calls map[string]int
	delay time.Duration
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]content.Response{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeFetcher) set(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[path] = content.Response{Path: path, StatusCode: http.StatusOK, Body: []byte(body)}
}

func (f *fakeFetcher) fail(path string, resp content.Response, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[path] = resp
	f.errs[path] = err
}

func (f *fakeFetcher) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string) (content.Response, error) {
	f.mu.Lock()
	f.calls[path]++
	resp, err := f.pages[path], f.errs[path]
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return content.Response{}, &content.TransportError{Path: path, Err: ctx.Err()}
		}
	}
	if err != nil {
		return resp, err
	}
	if resp.Body == nil {
		return content.Response{}, &content.TransportError{Path: path, StatusCode: http.StatusNotFound}
	}
	return resp, nil
}

type fakeTweets struct {
	mu      sync.Mutex
	handles []string
	err     error
}

func (f *fakeTweets) Latest(_ context.Context, handle string) (*content.Tweet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles = append(f.handles, handle)
	if f.err != nil {
		return nil, f.err
	}
	return &content.Tweet{Handle: handle, Body: "hello", FormattedDate: "Mar 5th"}, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestStore(f content.Fetcher, tweets content.TweetLookup, source content.SourceMode) *Store {
	return New(Options{
		Fetcher:    f,
		Normalizer: normalize.New(normalize.Options{Location: time.UTC}),
		Tweets:     tweets,
		Clock:      fixedClock{t: time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)},
		Source:     source,
		Logger:     zap.NewNop(),
	})
}

func TestGetCachesRecordInProduction(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.set("/trash", `{"type":"detailed_info","title":[{"value":"Trash"}]}`)
	s := newTestStore(f, nil, content.SourceProduction)

	rec, err := s.Get(context.Background(), "/trash")
	require.NoError(t, err)
	require.Equal(t, "Trash", rec.(*content.DetailedInfo).Title)

	again, err := s.Get(context.Background(), "/trash")
	require.NoError(t, err)
	require.Same(t, rec, again)
	require.Equal(t, 1, f.count("/trash"))

	entry, ok := s.Snapshot().Page("/trash")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC), entry.FetchedAt)
}

func TestMissingTypeIsCachedInProduction(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.set("/broken", `{"title":[{"value":"No type"}]}`)
	s := newTestStore(f, nil, content.SourceProduction)

	_, err := s.Get(context.Background(), "/broken")
	require.ErrorIs(t, err, content.ErrMissingType)
	_, err = s.Get(context.Background(), "/broken")
	require.ErrorIs(t, err, content.ErrMissingType)
	require.Equal(t, 1, f.count("/broken"))
}

func TestStagingAlwaysRefetches(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.set("/broken", `{"title":[{"value":"No type"}]}`)
	s := newTestStore(f, nil, content.SourceStaging)

	_, err := s.Get(context.Background(), "/broken")
	require.ErrorIs(t, err, content.ErrMissingType)
	_, err = s.Get(context.Background(), "/broken")
	require.ErrorIs(t, err, content.ErrMissingType)
	require.Equal(t, 2, f.count("/broken"))

	// The fix is picked up on the next request and overwrites the entry.
	f.set("/broken", `{"type":"detailed_info","title":[{"value":"Fixed"}]}`)
	rec, err := s.Get(context.Background(), "/broken")
	require.NoError(t, err)
	require.Equal(t, "Fixed", rec.(*content.DetailedInfo).Title)
	entry, _ := s.Snapshot().Page("/broken")
	require.NoError(t, entry.Err)
	require.Equal(t, 3, f.count("/broken"))
}

func TestTransportAndMessageErrorsAreCached(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.fail("/gone", content.Response{StatusCode: http.StatusNotFound, Body: []byte(`{"message":"No route found"}`)},
		&content.TransportError{Path: "/gone", StatusCode: http.StatusNotFound})
	f.fail("/down", content.Response{StatusCode: http.StatusBadGateway},
		&content.TransportError{Path: "/down", StatusCode: http.StatusBadGateway})
	s := newTestStore(f, nil, content.SourceProduction)

	_, err := s.Get(context.Background(), "/gone")
	var msgErr *content.UpstreamMessageError
	require.ErrorAs(t, err, &msgErr)
	require.Equal(t, "No route found", msgErr.Message)

	_, err = s.Get(context.Background(), "/down")
	var transportErr *content.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, http.StatusBadGateway, transportErr.StatusCode)

	_, _ = s.Get(context.Background(), "/down")
	require.Equal(t, 1, f.count("/down"))
}

func TestCanceledCallerLeavesSharedLoadRunning(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.delay = 200 * time.Millisecond
	f.set("/trash", `{"type":"detailed_info","title":[{"value":"Trash"}]}`)
	s := newTestStore(f, nil, content.SourceProduction)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Get(ctx, "/trash")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return f.count("/trash") == 1 }, time.Second, time.Millisecond)

	type result struct {
		rec content.Record
		err error
	}
	second := make(chan result, 1)
	go func() {
		rec, err := s.Get(context.Background(), "/trash")
		second <- result{rec, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-firstErr, context.Canceled)
	got := <-second
	require.NoError(t, got.err)
	require.Equal(t, "Trash", got.rec.(*content.DetailedInfo).Title)
	require.Equal(t, 1, f.count("/trash"))

	entry, ok := s.Snapshot().Page("/trash")
	require.True(t, ok)
	require.NoError(t, entry.Err)
}

func TestTimedOutLoadIsNotCached(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.delay = time.Second
	f.set("/slow", `{"type":"detailed_info"}`)
	s := New(Options{
		Fetcher:     f,
		Normalizer:  normalize.New(normalize.Options{Location: time.UTC}),
		Clock:       fixedClock{t: time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)},
		LoadTimeout: 10 * time.Millisecond,
		Logger:      zap.NewNop(),
	})

	_, err := s.Get(context.Background(), "/slow")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	_, ok := s.Snapshot().Page("/slow")
	require.False(t, ok)
}

func TestCanceledCallerReturnsImmediately(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.delay = time.Second
	f.set("/slow", `{"type":"detailed_info"}`)
	s := newTestStore(f, nil, content.SourceProduction)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	_, err := s.Get(ctx, "/slow")
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestTweetEnrichment(t *testing.T) {
	t.Parallel()

	dept := `{"type":"department","title":[{"value":"Parks"}],"field_social_links":[{"twitter":"https://twitter.com/CityParks","show_tweet":"1"}]}`
	quiet := `{"type":"department","title":[{"value":"Water"}],"field_social_links":[{"twitter":"https://twitter.com/CityWater","show_tweet":"0"}]}`

	f := newFakeFetcher()
	f.set("/parks", dept)
	f.set("/water", quiet)
	tweets := &fakeTweets{}
	s := newTestStore(f, tweets, content.SourceProduction)

	rec, err := s.Get(context.Background(), "/parks")
	require.NoError(t, err)
	d := rec.(*content.Department)
	require.NotNil(t, d.LatestTweet)
	require.Equal(t, "CityParks", d.LatestTweet.Handle)

	rec, err = s.Get(context.Background(), "/water")
	require.NoError(t, err)
	require.Nil(t, rec.(*content.Department).LatestTweet)
	require.Equal(t, []string{"CityParks"}, tweets.handles)
}

func TestTweetFailureStillStoresRecord(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.set("/camps", `{"type":"promotion_page","title":[{"value":"Camps"}],"field_social_links":[{"twitter":"https://twitter.com/CityCamps","show_tweet":"1"}]}`)
	s := newTestStore(f, &fakeTweets{err: errors.New("rate limited")}, content.SourceProduction)

	rec, err := s.Get(context.Background(), "/camps")
	require.NoError(t, err)
	page := rec.(*content.PromotionPage)
	require.Nil(t, page.LatestTweet)
	entry, ok := s.Snapshot().Page("/camps")
	require.True(t, ok)
	require.Same(t, rec, entry.Record)
}

func TestEventTypesResolvedFromSnapshot(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.set("/event", `{"type":"event","field_event_date":[{"value":"2024-03-05T10:00:00"}],"field_event_type":[{"target_id":"1"}]}`)
	s := newTestStore(f, nil, content.SourceStaging)

	rec, err := s.Get(context.Background(), "/event")
	require.NoError(t, err)
	require.Empty(t, rec.(*content.Event).EventTypes)

	next := content.Empty()
	next.Collections.EventTypes = []content.Term{{ID: "1", Name: "Meeting"}}
	s.Replace(next)

	rec, err = s.Get(context.Background(), "/event")
	require.NoError(t, err)
	require.Equal(t, []string{"Meeting"}, rec.(*content.Event).EventTypes)
}

func TestReplaceResetsPagesAndMarksReady(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.set("/trash", `{"type":"detailed_info"}`)
	s := newTestStore(f, nil, content.SourceProduction)
	require.False(t, s.Ready())

	_, err := s.Get(context.Background(), "/trash")
	require.NoError(t, err)
	before := s.Snapshot()

	next := &content.Snapshot{ID: "sync-2", SyncedAt: time.Now()}
	s.Replace(next)
	require.True(t, s.Ready())
	require.Same(t, next, s.Snapshot())
	require.Empty(t, s.Snapshot().Pages)
	// The old snapshot is untouched.
	require.Len(t, before.Pages, 1)

	_, err = s.Get(context.Background(), "/trash")
	require.NoError(t, err)
	require.Equal(t, 2, f.count("/trash"))
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	for _, p := range []string{"/a", "/b", "/c", "/d"} {
		f.set(p, `{"type":"detailed_info"}`)
	}
	s := newTestStore(f, nil, content.SourceProduction)

	var wg sync.WaitGroup
	var syncs, failures atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, p := range []string{"/a", "/b", "/c", "/d"} {
				if _, err := s.Get(context.Background(), p); err != nil {
					failures.Add(1)
				}
			}
		}()
		go func() {
			defer wg.Done()
			n := syncs.Add(1)
			s.Replace(&content.Snapshot{ID: fmt.Sprintf("sync-%d", n), SyncedAt: time.Now()})
		}()
	}
	wg.Wait()
	require.Zero(t, failures.Load())
	require.True(t, s.Ready())
	require.LessOrEqual(t, len(s.Snapshot().Pages), 4)
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	s := newTestStore(newFakeFetcher(), nil, content.SourceProduction)
	next := content.Empty()
	next.Redirects = []content.Redirect{
		{Source: "/old-parks", Destination: "/parks", StatusCode: 301},
		{Source: "/Library/", Destination: "/libraries", StatusCode: 302},
	}
	s.Replace(next)

	r, ok := s.Redirect("old-parks/")
	require.True(t, ok)
	require.Equal(t, "/parks", r.Destination)

	r, ok = s.Redirect("/library")
	require.True(t, ok)
	require.Equal(t, 302, r.StatusCode)

	_, ok = s.Redirect("/parks")
	require.False(t, ok)
}
