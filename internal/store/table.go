package store

import (
	"context"
	"time"
)

// Row is a question as the backing table holds it. RID is the table's own
// row handle and is only used to target updates and deletes.
type Row struct {
	RID       int64
	QID       string
	Text      string
	CreatedAt time.Time // zero when the table did not report one
	Votes     int
	Hidden    bool
}

// Patch is a single-row field update addressed by RID. Nil fields are left
// untouched.
type Patch struct {
	RID    int64
	Votes  *int
	Hidden *bool
}

// Table is the tabular record collaborator the adapter runs against.
// Implementations: nocodb.Client, db.Table.
type Table interface {
	List(ctx context.Context, limit int) ([]Row, error)
	FindByQID(ctx context.Context, qid string) ([]Row, error)
	Insert(ctx context.Context, row Row) error
	Update(ctx context.Context, patches []Patch) error
	Delete(ctx context.Context, rids []int64) error
}
