package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mccayce/qboard/internal/models"
	"github.com/mccayce/qboard/internal/voter"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeAPI serves a mutable list and can fail or block on demand.
type fakeAPI struct {
	mu      sync.Mutex
	items   []models.Question
	listErr error
	voteErr error
	subErr  error
	upvotes []string
	actions []string
	cleared int
	lists   int
	gate    chan []models.Question // when set, List waits for a reply here
	nextID  int
}

func (f *fakeAPI) List(ctx context.Context) ([]models.Question, error) {
	f.mu.Lock()
	f.lists++
	gate, err := f.gate, f.listErr
	items := append([]models.Question(nil), f.items...)
	f.mu.Unlock()
	if gate != nil {
		select {
		case items = <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return items, err
}

func (f *fakeAPI) Submit(_ context.Context, text string) (models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return models.Question{}, f.subErr
	}
	f.nextID++
	q := models.Question{ID: fmt.Sprintf("n%d", f.nextID), Text: text, CreatedAt: time.Now()}
	f.items = append(f.items, q)
	return q, nil
}

func (f *fakeAPI) Upvote(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upvotes = append(f.upvotes, id)
	if f.voteErr != nil {
		return f.voteErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Votes++
		}
	}
	return nil
}

func (f *fakeAPI) Act(_ context.Context, id string, a models.Action) (models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a.String()+":"+id)
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Hidden = a == models.ActionHide
			return f.items[i], nil
		}
	}
	return models.Question{}, errors.New("not_found")
}

func (f *fakeAPI) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, "delete:"+id)
	kept := f.items[:0]
	for _, q := range f.items {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeAPI) ClearAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	f.items = nil
	return nil
}

// recordingView keeps everything it was asked to show.
type recordingView struct {
	mu       sync.Mutex
	feeds    [][]FeedItem
	mods     [][]ModerationItem
	errors   []string
	statuses []string
}

func (v *recordingView) ShowFeed(items []FeedItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.feeds = append(v.feeds, items)
}

func (v *recordingView) ShowModeration(items []ModerationItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mods = append(v.mods, items)
}

func (v *recordingView) ShowError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, msg)
}

func (v *recordingView) ShowStatus(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, msg)
}

func (v *recordingView) lastFeed() []FeedItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.feeds) == 0 {
		return nil
	}
	return v.feeds[len(v.feeds)-1]
}

func newTracker() *voter.Tracker {
	return voter.Load(context.Background(), voter.NewMemoryStorage(), nil)
}

func TestSortVotesThenNewest(t *testing.T) {
	t1, t2, t3 := t0, t0.Add(time.Minute), t0.Add(2*time.Minute)
	in := []models.Question{
		{ID: "T1", Votes: 5, CreatedAt: t1},
		{ID: "T2", Votes: 5, CreatedAt: t2},
		{ID: "T3", Votes: 3, CreatedAt: t3},
	}
	got := Sort(in)
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	assert.Equal(t, []string{"T2", "T1", "T3"}, ids)
	assert.Equal(t, "T1", in[0].ID, "input untouched")
}

func TestPublicFiltersAndTruncates(t *testing.T) {
	var qs []models.Question
	for i := 0; i < 60; i++ {
		qs = append(qs, models.Question{ID: fmt.Sprint(i), Votes: i, Hidden: i%10 == 9})
	}
	got := Public(qs)
	assert.Len(t, got, FeedLimit)
	for _, q := range got {
		assert.False(t, q.Hidden)
	}
	assert.Equal(t, "58", got[0].ID)
}

func TestFeedRenderMarksVoted(t *testing.T) {
	api := &fakeAPI{items: []models.Question{
		{ID: "a", Votes: 1, CreatedAt: t0},
		{ID: "b", Votes: 2, CreatedAt: t0},
		{ID: "h", Votes: 9, Hidden: true},
	}}
	tr := newTracker()
	require.NoError(t, tr.RecordVote(context.Background(), "a"))
	view := &recordingView{}
	f := NewFeed(api, tr, view, nil)

	assert.Equal(t, Idle, f.State())
	f.Render(context.Background())
	assert.Equal(t, Rendered, f.State())

	items := view.lastFeed()
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.False(t, items[0].Voted)
	assert.Equal(t, "a", items[1].ID)
	assert.True(t, items[1].Voted)
	assert.Len(t, f.Items(), 2)
}

func TestFeedLoadErrorIsDisplayed(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("load_failed")}
	view := &recordingView{}
	f := NewFeed(api, newTracker(), view, nil)

	f.Render(context.Background())
	assert.Equal(t, ErrorDisplayed, f.State())
	assert.Equal(t, []string{LoadErrorMessage}, view.errors)
	assert.Empty(t, f.Items())

	api.mu.Lock()
	api.listErr = nil
	api.mu.Unlock()
	f.Render(context.Background())
	assert.Equal(t, Rendered, f.State())
}

func TestStaleResponseIsDropped(t *testing.T) {
	gate := make(chan []models.Question)
	api := &fakeAPI{gate: gate}
	view := &recordingView{}
	f := NewFeed(api, newTracker(), view, nil)
	ctx := context.Background()

	slow := make(chan struct{})
	go func() {
		f.Render(ctx)
		close(slow)
	}()
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.lists == 1
	}, time.Second, time.Millisecond)

	fast := make(chan struct{})
	go func() {
		f.Render(ctx)
		close(fast)
	}()
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.lists == 2
	}, time.Second, time.Millisecond)

	// Whichever List receives first, only the second-issued render may apply;
	// feed both and check what landed.
	gate <- []models.Question{{ID: "one"}}
	gate <- []models.Question{{ID: "two"}}
	<-slow
	<-fast

	view.mu.Lock()
	defer view.mu.Unlock()
	require.Len(t, view.feeds, 1, "only the latest-issued render is applied")
}

func TestUpvoteFlow(t *testing.T) {
	api := &fakeAPI{items: []models.Question{{ID: "q1"}}}
	tr := newTracker()
	view := &recordingView{}
	f := NewFeed(api, tr, view, nil)
	ctx := context.Background()

	require.NoError(t, f.Upvote(ctx, "q1"))
	assert.True(t, tr.HasVoted("q1"))
	items := view.lastFeed()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Votes)
	assert.True(t, items[0].Voted)

	assert.ErrorIs(t, f.Upvote(ctx, "q1"), ErrAlreadyVoted)
	assert.Equal(t, []string{"q1"}, api.upvotes)
}

func TestUpvoteFailureLeavesVotable(t *testing.T) {
	api := &fakeAPI{items: []models.Question{{ID: "q1"}}, voteErr: errors.New("upvote_failed")}
	tr := newTracker()
	f := NewFeed(api, tr, &recordingView{}, nil)
	ctx := context.Background()

	assert.Error(t, f.Upvote(ctx, "q1"))
	assert.False(t, tr.HasVoted("q1"))

	api.mu.Lock()
	api.voteErr = nil
	api.mu.Unlock()
	assert.NoError(t, f.Upvote(ctx, "q1"))
	assert.Len(t, api.upvotes, 2)
}

func TestSubmit(t *testing.T) {
	api := &fakeAPI{}
	view := &recordingView{}
	f := NewFeed(api, newTracker(), view, nil)
	ctx := context.Background()

	assert.ErrorIs(t, f.Submit(ctx, "   "), ErrEmptyQuestion)
	assert.Empty(t, view.statuses)

	require.NoError(t, f.Submit(ctx, "  why?  "))
	assert.Equal(t, []string{StatusSent}, view.statuses)
	items := view.lastFeed()
	require.Len(t, items, 1)
	assert.Equal(t, "why?", items[0].Text)

	api.subErr = errors.New("submit_failed")
	assert.Error(t, f.Submit(ctx, "again"))
	assert.Equal(t, StatusFailed, view.statuses[len(view.statuses)-1])
}

func TestModerationShowsHiddenWithLabels(t *testing.T) {
	api := &fakeAPI{items: []models.Question{
		{ID: "live", Votes: 1},
		{ID: "gone", Votes: 3, Hidden: true},
	}}
	view := &recordingView{}
	m := NewModeration(api, view, nil)
	ctx := context.Background()

	m.Render(ctx)
	require.Len(t, view.mods, 1)
	items := view.mods[0]
	require.Len(t, items, 2)
	assert.Equal(t, "gone", items[0].ID)
	assert.Equal(t, "HIDDEN", items[0].Label)
	assert.Equal(t, "LIVE", items[1].Label)

	require.NoError(t, m.Unhide(ctx, "gone"))
	assert.Equal(t, "LIVE", view.mods[len(view.mods)-1][0].Label)
	require.NoError(t, m.Hide(ctx, "live"))
	require.NoError(t, m.Delete(ctx, "gone"))
	assert.Len(t, view.mods[len(view.mods)-1], 1)
	require.NoError(t, m.ClearAll(ctx))
	assert.Empty(t, view.mods[len(view.mods)-1])

	assert.Equal(t, []string{"unhide:gone", "hide:live", "delete:gone"}, api.actions)
	assert.Equal(t, 1, api.cleared)
	assert.Len(t, view.mods, 5, "every action re-renders")
}

func TestModerationActionFailureSkipsRender(t *testing.T) {
	api := &fakeAPI{}
	view := &recordingView{}
	m := NewModeration(api, view, nil)

	assert.Error(t, m.Hide(context.Background(), "missing"))
	assert.Empty(t, view.mods)
}

func TestTextView(t *testing.T) {
	var buf bytes.Buffer
	v := NewTextView(&buf)
	v.Now = func() time.Time { return t0.Add(3 * time.Minute) }

	v.ShowFeed([]FeedItem{{Question: models.Question{Text: "hello", Votes: 2}, Voted: true}})
	v.ShowModeration([]ModerationItem{{Question: models.Question{Text: "hm", CreatedAt: t0}, Label: "HIDDEN"}})
	v.ShowError(LoadErrorMessage)

	out := buf.String()
	assert.Contains(t, out, " 1. [^ 2] hello  (upvoted)")
	assert.Contains(t, out, "3 minutes ago · HIDDEN")
	assert.True(t, strings.HasSuffix(out, LoadErrorMessage+"\n"))
}
