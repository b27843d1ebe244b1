package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mccayce/qboard/internal/models"
)

// PageLimit bounds every unfiltered list against the table.
const PageLimit = 200

// ErrNotFound is returned by Patch when no row carries the requested id.
var ErrNotFound = errors.New("not_found")

// Questions translates question operations into Table calls.
type Questions struct {
	table Table
	now   func() time.Time
	newID func() string
}

// Option configures Questions.
type Option func(*Questions)

// WithClock overrides the time source used for createdAt defaults.
func WithClock(now func() time.Time) Option {
	return func(q *Questions) { q.now = now }
}

// WithIDGenerator overrides business id generation.
func WithIDGenerator(gen func() string) Option {
	return func(q *Questions) { q.newID = gen }
}

func NewQuestions(table Table, opts ...Option) *Questions {
	q := &Questions{table: table, now: time.Now, newID: NewID}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// List returns up to PageLimit questions in table order.
func (q *Questions) List(ctx context.Context) ([]models.Question, error) {
	rows, err := q.table.List(ctx, PageLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, q.toQuestion(r))
	}
	return out, nil
}

// Create stores a new question and returns it without reading it back.
func (q *Questions) Create(ctx context.Context, text string) (models.Question, error) {
	id := q.newID()
	if err := q.table.Insert(ctx, Row{QID: id, Text: text}); err != nil {
		return models.Question{}, err
	}
	return models.Question{ID: id, Text: text, CreatedAt: q.now().UTC()}, nil
}

// Patch applies action to the question with the given id. The row is read
// and rewritten in two round trips; concurrent upvotes can lose an increment.
func (q *Questions) Patch(ctx context.Context, id string, action models.Action) (models.Question, error) {
	rows, err := q.table.List(ctx, PageLimit)
	if err != nil {
		return models.Question{}, err
	}
	idx := -1
	for i := range rows {
		if rows[i].QID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Question{}, ErrNotFound
	}
	row := rows[idx]
	row.Votes = clampVotes(row.Votes)

	p := Patch{RID: row.RID}
	switch action {
	case models.ActionUpvote:
		votes := row.Votes + 1
		p.Votes = &votes
		row.Votes = votes
	case models.ActionHide, models.ActionUnhide:
		hidden := action == models.ActionHide
		p.Hidden = &hidden
		row.Hidden = hidden
	default:
		return models.Question{}, models.ErrUnknownAction
	}

	if err := q.table.Update(ctx, []Patch{p}); err != nil {
		return models.Question{}, err
	}
	return q.toQuestion(row), nil
}

// Delete removes the question with the given id. A missing id is not an error.
func (q *Questions) Delete(ctx context.Context, id string) error {
	rows, err := q.table.FindByQID(ctx, id)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return q.table.Delete(ctx, []int64{rows[0].RID})
}

// ClearAll deletes every listed row in one batch call.
func (q *Questions) ClearAll(ctx context.Context) error {
	rows, err := q.table.List(ctx, PageLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	rids := make([]int64, 0, len(rows))
	for _, r := range rows {
		rids = append(rids, r.RID)
	}
	return q.table.Delete(ctx, rids)
}

func (q *Questions) toQuestion(r Row) models.Question {
	created := r.CreatedAt
	if created.IsZero() {
		created = q.now().UTC()
	}
	return models.Question{
		ID:        r.QID,
		Text:      r.Text,
		CreatedAt: created,
		Votes:     clampVotes(r.Votes),
		Hidden:    r.Hidden,
	}
}

func clampVotes(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// NewID returns a random UUID, or a millisecond timestamp plus random hex
// when the UUID source fails.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	return fallbackID(time.Now())
}

func fallbackID(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d-%x", now.UnixMilli(), now.UnixNano())
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), hex.EncodeToString(buf))
}
