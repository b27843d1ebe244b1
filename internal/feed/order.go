package feed

import (
	"sort"

	"github.com/mccayce/qboard/internal/models"
)

// FeedLimit caps how many questions the public feed shows.
const FeedLimit = 50

// Sort orders by votes descending, newest first among equal votes. The input
// is not modified.
func Sort(qs []models.Question) []models.Question {
	out := append([]models.Question(nil), qs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Public drops hidden questions, sorts, and keeps the top FeedLimit.
func Public(qs []models.Question) []models.Question {
	visible := make([]models.Question, 0, len(qs))
	for _, q := range qs {
		if !q.Hidden {
			visible = append(visible, q)
		}
	}
	visible = Sort(visible)
	if len(visible) > FeedLimit {
		visible = visible[:FeedLimit]
	}
	return visible
}

// Label is the moderation visibility tag.
func Label(q models.Question) string {
	if q.Hidden {
		return "HIDDEN"
	}
	return "LIVE"
}
