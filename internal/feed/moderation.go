package feed

import (
	"context"

	"go.uber.org/zap"

	"github.com/mccayce/qboard/internal/models"
)

// ModerationAPI is the part of the question client the moderation view uses.
type ModerationAPI interface {
	Lister
	Act(ctx context.Context, id string, action models.Action) (models.Question, error)
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
}

type ModerationItem struct {
	models.Question
	Label string
}

type ModerationView interface {
	ShowModeration(items []ModerationItem)
	ShowError(msg string)
}

// Moderation renders every question, hidden ones included.
type Moderation struct {
	api   ModerationAPI
	view  ModerationView
	log   *zap.Logger
	cycle cycle
	items []ModerationItem
}

func NewModeration(api ModerationAPI, view ModerationView, log *zap.Logger) *Moderation {
	if log == nil {
		log = zap.NewNop()
	}
	return &Moderation{api: api, view: view, log: log}
}

func (m *Moderation) Render(ctx context.Context) {
	tag := m.cycle.begin()
	qs, err := m.api.List(ctx)
	if err != nil {
		m.cycle.finish(tag, ErrorDisplayed, func() {
			m.log.Warn("moderation: load failed", zap.Error(err))
			m.items = nil
			m.view.ShowError(LoadErrorMessage)
		})
		return
	}

	sorted := Sort(qs)
	items := make([]ModerationItem, 0, len(sorted))
	for _, q := range sorted {
		items = append(items, ModerationItem{Question: q, Label: Label(q)})
	}
	m.cycle.finish(tag, Rendered, func() {
		m.items = items
		m.view.ShowModeration(items)
	})
}

func (m *Moderation) State() State { return m.cycle.current() }

func (m *Moderation) Items() []ModerationItem {
	m.cycle.mu.Lock()
	defer m.cycle.mu.Unlock()
	return append([]ModerationItem(nil), m.items...)
}

func (m *Moderation) Hide(ctx context.Context, id string) error {
	return m.act(ctx, id, models.ActionHide)
}

func (m *Moderation) Unhide(ctx context.Context, id string) error {
	return m.act(ctx, id, models.ActionUnhide)
}

func (m *Moderation) Delete(ctx context.Context, id string) error {
	return m.then(ctx, "delete", m.api.Delete(ctx, id))
}

func (m *Moderation) ClearAll(ctx context.Context) error {
	return m.then(ctx, "clear", m.api.ClearAll(ctx))
}

func (m *Moderation) act(ctx context.Context, id string, a models.Action) error {
	_, err := m.api.Act(ctx, id, a)
	return m.then(ctx, a.String(), err)
}

// then re-renders after a successful action.
func (m *Moderation) then(ctx context.Context, op string, err error) error {
	if err != nil {
		m.log.Warn("moderation: action failed", zap.String("op", op), zap.Error(err))
		return err
	}
	m.Render(ctx)
	return nil
}
