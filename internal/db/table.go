package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mccayce/qboard/internal/store"
)

// QuestionRow is the SQL layout of a stored question.
type QuestionRow struct {
	ID        int64     `gorm:"primarykey"`
	QID       string    `gorm:"column:qid;not null;uniqueIndex"`
	Text      string    `gorm:"not null"`
	Votes     int       `gorm:"not null;default:0"`
	Hidden    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (QuestionRow) TableName() string { return "questions" }

// Table is a store.Table over a GORM connection.
type Table struct {
	DB *gorm.DB
}

var _ store.Table = (*Table)(nil)

func NewTable(db *gorm.DB) *Table {
	return &Table{DB: db}
}

func (t *Table) List(ctx context.Context, limit int) ([]store.Row, error) {
	var rows []QuestionRow
	if err := t.DB.WithContext(ctx).Order("id asc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRows(rows), nil
}

func (t *Table) FindByQID(ctx context.Context, qid string) ([]store.Row, error) {
	var rows []QuestionRow
	if err := t.DB.WithContext(ctx).Where("qid = ?", qid).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRows(rows), nil
}

func (t *Table) Insert(ctx context.Context, row store.Row) error {
	return t.DB.WithContext(ctx).Create(&QuestionRow{
		QID:    row.QID,
		Text:   row.Text,
		Votes:  row.Votes,
		Hidden: row.Hidden,
	}).Error
}

// Update writes absolute values; it does not turn an upvote into votes+1.
func (t *Table) Update(ctx context.Context, patches []store.Patch) error {
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range patches {
			fields := map[string]any{}
			if p.Votes != nil {
				fields["votes"] = *p.Votes
			}
			if p.Hidden != nil {
				fields["hidden"] = *p.Hidden
			}
			if len(fields) == 0 {
				continue
			}
			if err := tx.Model(&QuestionRow{}).Where("id = ?", p.RID).Updates(fields).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *Table) Delete(ctx context.Context, rids []int64) error {
	if len(rids) == 0 {
		return nil
	}
	return t.DB.WithContext(ctx).Where("id IN ?", rids).Delete(&QuestionRow{}).Error
}

func toRows(in []QuestionRow) []store.Row {
	out := make([]store.Row, 0, len(in))
	for _, r := range in {
		out = append(out, store.Row{
			RID:       r.ID,
			QID:       r.QID,
			Text:      r.Text,
			CreatedAt: r.CreatedAt.UTC(),
			Votes:     r.Votes,
			Hidden:    r.Hidden,
		})
	}
	return out
}
