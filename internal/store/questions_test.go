package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mccayce/qboard/internal/models"
)

// memTable is an in-memory Table that counts calls.
type memTable struct {
	rows    []Row
	nextRID int64

	listCalls   int
	findCalls   int
	updateCalls int
	deleteCalls int
	lastDelete  []int64
	lastLimit   int

	err error
}

func (m *memTable) List(_ context.Context, limit int) ([]Row, error) {
	m.listCalls++
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	out := append([]Row(nil), m.rows...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memTable) FindByQID(_ context.Context, qid string) ([]Row, error) {
	m.findCalls++
	if m.err != nil {
		return nil, m.err
	}
	var out []Row
	for _, r := range m.rows {
		if r.QID == qid {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memTable) Insert(_ context.Context, row Row) error {
	if m.err != nil {
		return m.err
	}
	m.nextRID++
	row.RID = m.nextRID
	row.CreatedAt = time.Now()
	m.rows = append(m.rows, row)
	return nil
}

func (m *memTable) Update(_ context.Context, patches []Patch) error {
	m.updateCalls++
	if m.err != nil {
		return m.err
	}
	for _, p := range patches {
		for i := range m.rows {
			if m.rows[i].RID != p.RID {
				continue
			}
			if p.Votes != nil {
				m.rows[i].Votes = *p.Votes
			}
			if p.Hidden != nil {
				m.rows[i].Hidden = *p.Hidden
			}
		}
	}
	return nil
}

func (m *memTable) Delete(_ context.Context, rids []int64) error {
	m.deleteCalls++
	m.lastDelete = rids
	if m.err != nil {
		return m.err
	}
	drop := map[int64]bool{}
	for _, id := range rids {
		drop[id] = true
	}
	kept := m.rows[:0]
	for _, r := range m.rows {
		if !drop[r.RID] {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func TestCreateReturnsFreshQuestion(t *testing.T) {
	table := &memTable{}
	q := NewQuestions(table)

	got, err := q.Create(context.Background(), "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "hi", got.Text)
	assert.Equal(t, 0, got.Votes)
	assert.False(t, got.Hidden)
	assert.False(t, got.CreatedAt.IsZero())

	require.Len(t, table.rows, 1)
	assert.Equal(t, got.ID, table.rows[0].QID)
	assert.Equal(t, 0, table.listCalls, "create must not read back")
}

func TestCreateUsesDistinctIDs(t *testing.T) {
	q := NewQuestions(&memTable{})
	a, err := q.Create(context.Background(), "a")
	require.NoError(t, err)
	b, err := q.Create(context.Background(), "b")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestListDefaultsMissingFields(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	table := &memTable{rows: []Row{{RID: 1, QID: "q1", Text: "hello"}}}
	q := NewQuestions(table, WithClock(func() time.Time { return fixed }))

	got, err := q.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.Question{ID: "q1", Text: "hello", CreatedAt: fixed}, got[0])
	assert.Equal(t, PageLimit, table.lastLimit)
}

func TestListIncludesHidden(t *testing.T) {
	table := &memTable{rows: []Row{{RID: 1, QID: "a"}, {RID: 2, QID: "b", Hidden: true}}}
	got, err := NewQuestions(table).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPatchUpvoteIncrementsByOne(t *testing.T) {
	table := &memTable{rows: []Row{{RID: 7, QID: "x", Votes: 4}}}
	q := NewQuestions(table)

	for want := 5; want <= 8; want++ {
		got, err := q.Patch(context.Background(), "x", models.ActionUpvote)
		require.NoError(t, err)
		assert.Equal(t, want, got.Votes)
		assert.Equal(t, want, table.rows[0].Votes)
	}
	assert.Equal(t, 4, table.updateCalls)
}

func TestPatchUpvoteFromNegativeStartsAtZero(t *testing.T) {
	table := &memTable{rows: []Row{{RID: 7, QID: "x", Votes: -3}}}
	q := NewQuestions(table)

	listed, err := q.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, listed[0].Votes)

	got, err := q.Patch(context.Background(), "x", models.ActionUpvote)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes)
	assert.Equal(t, 1, table.rows[0].Votes)
}

func TestPatchHideUnhideIdempotent(t *testing.T) {
	table := &memTable{rows: []Row{{RID: 1, QID: "x"}}}
	q := NewQuestions(table)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := q.Patch(ctx, "x", models.ActionHide)
		require.NoError(t, err)
		assert.True(t, got.Hidden)
	}
	for i := 0; i < 2; i++ {
		got, err := q.Patch(ctx, "x", models.ActionUnhide)
		require.NoError(t, err)
		assert.False(t, got.Hidden)
	}
	assert.False(t, table.rows[0].Hidden)
}

func TestPatchMissingRow(t *testing.T) {
	table := &memTable{rows: []Row{{RID: 1, QID: "other"}}}
	_, err := NewQuestions(table).Patch(context.Background(), "x", models.ActionUpvote)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, table.updateCalls)
}

func TestPatchUnknownAction(t *testing.T) {
	table := &memTable{rows: []Row{{RID: 1, QID: "x"}}}
	_, err := NewQuestions(table).Patch(context.Background(), "x", models.Action(99))
	assert.ErrorIs(t, err, models.ErrUnknownAction)
	assert.Equal(t, 0, table.updateCalls)
}

func TestDeleteByBusinessID(t *testing.T) {
	table := &memTable{rows: []Row{{RID: 1, QID: "a"}, {RID: 2, QID: "b"}}}
	require.NoError(t, NewQuestions(table).Delete(context.Background(), "b"))
	assert.Equal(t, []int64{2}, table.lastDelete)
	require.Len(t, table.rows, 1)
	assert.Equal(t, "a", table.rows[0].QID)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	table := &memTable{rows: []Row{{RID: 1, QID: "a"}}}
	require.NoError(t, NewQuestions(table).Delete(context.Background(), "nope"))
	assert.Equal(t, 1, table.findCalls)
	assert.Equal(t, 0, table.deleteCalls)
}

func TestClearAllSingleBatch(t *testing.T) {
	table := &memTable{rows: []Row{{RID: 1, QID: "a"}, {RID: 2, QID: "b"}, {RID: 3, QID: "c"}}}
	require.NoError(t, NewQuestions(table).ClearAll(context.Background()))
	assert.Equal(t, 1, table.deleteCalls)
	assert.ElementsMatch(t, []int64{1, 2, 3}, table.lastDelete)
	assert.Empty(t, table.rows)
}

func TestClearAllEmptyStore(t *testing.T) {
	table := &memTable{}
	require.NoError(t, NewQuestions(table).ClearAll(context.Background()))
	assert.Equal(t, 0, table.deleteCalls)
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("noco_502")
	table := &memTable{err: boom}
	q := NewQuestions(table)
	ctx := context.Background()

	_, err := q.List(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = q.Create(ctx, "x")
	assert.ErrorIs(t, err, boom)
	_, err = q.Patch(ctx, "x", models.ActionUpvote)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, q.Delete(ctx, "x"), boom)
	assert.ErrorIs(t, q.ClearAll(ctx), boom)
}

func TestFallbackID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := fallbackID(now)
	assert.True(t, strings.HasPrefix(id, "1700000000123-"), id)
	assert.Greater(t, len(id), len("1700000000123-"))
}
