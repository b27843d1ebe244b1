// Package feed turns polled question lists into what the public feed and the
// moderation view display.
package feed

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mccayce/qboard/internal/models"
)

var (
	ErrEmptyQuestion = errors.New("feed: question text is empty")
	ErrAlreadyVoted  = errors.New("feed: already upvoted")
	ErrVotePending   = errors.New("feed: upvote in flight")
)

// Status lines shown after a submission.
const (
	StatusSent   = "Question sent."
	StatusFailed = "Couldn't submit right now."
)

type Lister interface {
	List(ctx context.Context) ([]models.Question, error)
}

// FeedAPI is the part of the question client the public feed uses.
type FeedAPI interface {
	Lister
	Submit(ctx context.Context, text string) (models.Question, error)
	Upvote(ctx context.Context, id string) error
}

// VoteTracker is satisfied by *voter.Tracker.
type VoteTracker interface {
	HasVoted(id string) bool
	RecordVote(ctx context.Context, id string) error
}

// FeedItem is one displayed question. Voted disables its upvote control.
type FeedItem struct {
	models.Question
	Voted bool
}

type FeedView interface {
	ShowFeed(items []FeedItem)
	ShowError(msg string)
	ShowStatus(msg string)
}

// Feed is the public renderer.
type Feed struct {
	api    FeedAPI
	votes  VoteTracker
	view   FeedView
	log    *zap.Logger
	cycle  cycle
	items  []FeedItem
	mu     sync.Mutex
	voting map[string]bool
}

func NewFeed(api FeedAPI, votes VoteTracker, view FeedView, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{api: api, votes: votes, view: view, log: log, voting: map[string]bool{}}
}

// Render runs one refresh cycle. A failed load shows LoadErrorMessage; a
// response overtaken by a newer Render is discarded.
func (f *Feed) Render(ctx context.Context) {
	tag := f.cycle.begin()
	qs, err := f.api.List(ctx)
	if err != nil {
		f.cycle.finish(tag, ErrorDisplayed, func() {
			f.log.Warn("feed: load failed", zap.Error(err))
			f.items = nil
			f.view.ShowError(LoadErrorMessage)
		})
		return
	}

	visible := Public(qs)
	items := make([]FeedItem, 0, len(visible))
	for _, q := range visible {
		items = append(items, FeedItem{Question: q, Voted: f.votes.HasVoted(q.ID)})
	}
	f.cycle.finish(tag, Rendered, func() {
		f.items = items
		f.view.ShowFeed(items)
	})
}

func (f *Feed) State() State { return f.cycle.current() }

// Items returns what the last applied render showed.
func (f *Feed) Items() []FeedItem {
	f.cycle.mu.Lock()
	defer f.cycle.mu.Unlock()
	return append([]FeedItem(nil), f.items...)
}

// Submit sends a question and re-renders on success.
func (f *Feed) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyQuestion
	}
	if _, err := f.api.Submit(ctx, text); err != nil {
		f.log.Warn("feed: submit failed", zap.Error(err))
		f.view.ShowStatus(StatusFailed)
		return err
	}
	f.view.ShowStatus(StatusSent)
	f.Render(ctx)
	return nil
}

// Upvote votes once per question per client. A failed request leaves the
// question votable again.
func (f *Feed) Upvote(ctx context.Context, id string) error {
	if f.votes.HasVoted(id) {
		return ErrAlreadyVoted
	}
	f.mu.Lock()
	if f.voting[id] {
		f.mu.Unlock()
		return ErrVotePending
	}
	f.voting[id] = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.voting, id)
		f.mu.Unlock()
	}()

	if err := f.api.Upvote(ctx, id); err != nil {
		f.log.Warn("feed: upvote failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := f.votes.RecordVote(ctx, id); err != nil {
		f.log.Warn("feed: persist vote failed", zap.String("id", id), zap.Error(err))
	}
	f.Render(ctx)
	return nil
}
