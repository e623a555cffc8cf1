package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "redscraper/pkg/errors"
	"redscraper/pkg/logger"
	"redscraper/pkg/reddit"
)

// fakeLister replays scripted listing pages and records the cursors it
// was asked for.
type fakeLister struct {
	pages  []*reddit.Listing
	err    error
	errOn  int
	calls  int
	afters []string
}

func (f *fakeLister) FetchListingPage(ctx context.Context, target string, isUser bool, pageSize int, after string) (*reddit.Listing, error) {
	f.calls++
	f.afters = append(f.afters, after)
	if f.err != nil && f.calls == f.errOn {
		return nil, f.err
	}
	if f.calls > len(f.pages) {
		return &reddit.Listing{}, nil
	}
	return f.pages[f.calls-1], nil
}

func postThing(t *testing.T, id string) reddit.Thing {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": id, "name": "t3_" + id})
	require.NoError(t, err)
	return reddit.Thing{Kind: "t3", Data: raw}
}

func listingPage(t *testing.T, after string, ids ...string) *reddit.Listing {
	t.Helper()
	children := make([]reddit.Thing, 0, len(ids))
	for _, id := range ids {
		children = append(children, postThing(t, id))
	}
	return &reddit.Listing{
		Kind: "Listing",
		Data: reddit.ListingData{After: after, Children: children},
	}
}

func TestPaginatorShortPageStopsWalk(t *testing.T) {
	// Two items on page 1 while limit allows 100 per page means end
	// of data: no second request.
	lister := &fakeLister{pages: []*reddit.Listing{
		listingPage(t, "t3_b", "a", "b"),
	}}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 100, 2)

	first := p.Next(context.Background())
	require.Len(t, first, 2)

	second := p.Next(context.Background())
	assert.Nil(t, second)
	assert.Equal(t, 1, lister.calls)
	assert.NoError(t, p.Err())
	assert.Equal(t, 2, p.Fetched())
}

func TestPaginatorZeroLimit(t *testing.T) {
	lister := &fakeLister{}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 100, 0)

	assert.Nil(t, p.Next(context.Background()))
	assert.Equal(t, 0, lister.calls)
	assert.NoError(t, p.Err())
}

func TestPaginatorEmptyTarget(t *testing.T) {
	lister := &fakeLister{pages: []*reddit.Listing{listingPage(t, "")}}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 100, 50)

	assert.Nil(t, p.Next(context.Background()))
	assert.Equal(t, 1, lister.calls)
	assert.NoError(t, p.Err())
	assert.Equal(t, 0, p.Fetched())
}

func TestPaginatorWalksCursors(t *testing.T) {
	lister := &fakeLister{pages: []*reddit.Listing{
		listingPage(t, "t3_b", "a", "b"),
		listingPage(t, "t3_d", "c", "d"),
		listingPage(t, "", "e"),
	}}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 2, 10)

	var ids []string
	for {
		things := p.Next(context.Background())
		if len(things) == 0 {
			break
		}
		for _, thing := range things {
			post, err := thing.Post()
			require.NoError(t, err)
			ids = append(ids, post.ID)
		}
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)
	assert.Equal(t, []string{"", "t3_b", "t3_d"}, lister.afters)
	assert.NoError(t, p.Err())
}

func TestPaginatorTrimsToLimit(t *testing.T) {
	lister := &fakeLister{pages: []*reddit.Listing{
		listingPage(t, "t3_c", "a", "b", "c"),
	}}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 100, 3)

	// The page request is capped to the remaining budget, so a 3-item
	// response to a 3-item request reads as a full page and the walk
	// stops at the limit anyway.
	things := p.Next(context.Background())
	assert.Len(t, things, 3)
	assert.Nil(t, p.Next(context.Background()))
	assert.Equal(t, 1, lister.calls)
}

func TestPaginatorFetchFailurePreservesPartial(t *testing.T) {
	wantErr := errs.Newf(errs.ErrorTypeFetch, "all mirrors exhausted")
	lister := &fakeLister{
		pages: []*reddit.Listing{
			listingPage(t, "t3_b", "a", "b"),
		},
		err:   wantErr,
		errOn: 2,
	}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 2, 10)

	first := p.Next(context.Background())
	require.Len(t, first, 2)

	second := p.Next(context.Background())
	assert.Nil(t, second)
	assert.ErrorIs(t, p.Err(), wantErr)
	assert.Equal(t, 2, p.Fetched())
}

func TestPaginatorCancelledContext(t *testing.T) {
	lister := &fakeLister{pages: []*reddit.Listing{listingPage(t, "", "a")}}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 100, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, p.Next(ctx))
	assert.Equal(t, 0, lister.calls)
	assert.Error(t, p.Err())
}

func TestPaginatorCursorFallsBackToLastItemName(t *testing.T) {
	// The envelope has no cursor, but the page is full: the walk
	// derives the cursor from the last item's fullname.
	lister := &fakeLister{pages: []*reddit.Listing{
		listingPage(t, "", "a", "b"),
		listingPage(t, "", "c"),
	}}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 2, 10)

	require.Len(t, p.Next(context.Background()), 2)
	require.Len(t, p.Next(context.Background()), 1)
	assert.Equal(t, []string{"", "t3_b"}, lister.afters)
}

func TestValidateTarget(t *testing.T) {
	assert.NoError(t, ValidateTarget("testsub"))
	assert.NoError(t, ValidateTarget("some_user-123"))
	assert.Error(t, ValidateTarget(""))
	assert.Error(t, ValidateTarget("bad/../path"))
	assert.Error(t, ValidateTarget("white space"))
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"full", "history", "monitor"} {
		got, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), got)
	}

	_, err := ParseMode("bogus")
	require.Error(t, err)
	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeConfig, typed.Type)
	assert.Equal(t, fmt.Sprintf("%s error: unknown mode %q (want full, history, or monitor)", errs.ErrorTypeConfig, "bogus"), err.Error())
}

func TestPaginatorCooldownSpacesPages(t *testing.T) {
	lister := &fakeLister{pages: []*reddit.Listing{
		listingPage(t, "t3_b", "a", "b"),
		listingPage(t, "", "c", "d"),
	}}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 2, 10)
	p.SetCooldown(40 * time.Millisecond)

	start := time.Now()
	require.Len(t, p.Next(context.Background()), 2)
	require.Len(t, p.Next(context.Background()), 2)

	// The first fetch is immediate; the second waits out the cooldown.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, 2, lister.calls)
	assert.NoError(t, p.Err())
}

func TestPaginatorCooldownStopsOnCancelledContext(t *testing.T) {
	lister := &fakeLister{pages: []*reddit.Listing{
		listingPage(t, "t3_b", "a", "b"),
		listingPage(t, "", "c", "d"),
	}}
	p := NewPaginator(lister, nil, logger.NewTestLogger(), "testsub", false, 2, 10)
	p.SetCooldown(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	require.Len(t, p.Next(ctx), 2)

	start := time.Now()
	assert.Nil(t, p.Next(ctx))
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, p.Err(), context.DeadlineExceeded)
	assert.Equal(t, 1, lister.calls)
}
