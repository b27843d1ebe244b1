package nocodb

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mccayce/qboard/internal/store"
)

type listResponse struct {
	List []record `json:"list"`
}

// record is a raw row. NocoDB is loose about column types, so votes and
// hidden accept numbers, strings, booleans or null.
type record struct {
	ID          int64     `json:"Id"`
	QID         string    `json:"qid"`
	Text        string    `json:"text"`
	Votes       looseInt  `json:"votes"`
	Hidden      looseBool `json:"hidden"`
	CreatedAt   string    `json:"CreatedAt"`
	CreatedAtLo string    `json:"created_at"`
}

func (r record) toRow() store.Row {
	created := r.CreatedAt
	if created == "" {
		created = r.CreatedAtLo
	}
	return store.Row{
		RID:       r.ID,
		QID:       r.QID,
		Text:      r.Text,
		CreatedAt: parseTime(created),
		Votes:     int(r.Votes),
		Hidden:    bool(r.Hidden),
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// looseInt decodes a vote count. Anything that is not a finite count in
// [0, MaxInt32] reads as 0.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		*n = 0
		return nil
	}
	*n = looseInt(f)
	return nil
}

type looseBool bool

func (v *looseBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(b)), `"`) {
	case "", "null", "false", "0":
		*v = false
	default:
		*v = true
	}
	return nil
}

type createBody struct {
	QID    string `json:"qid"`
	Text   string `json:"text"`
	Votes  int    `json:"votes"`
	Hidden bool   `json:"hidden"`
}

type patchBody struct {
	ID     int64 `json:"id"`
	Votes  *int  `json:"votes,omitempty"`
	Hidden *bool `json:"hidden,omitempty"`
}

type ridBody struct {
	ID int64 `json:"id"`
}

