package feed

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// TextView prints both views as numbered plain-text lists.
type TextView struct {
	W   io.Writer
	Now func() time.Time

	mu sync.Mutex
}

func NewTextView(w io.Writer) *TextView {
	return &TextView{W: w, Now: time.Now}
}

func (v *TextView) ShowFeed(items []FeedItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.W, "---- questions ----")
	if len(items) == 0 {
		fmt.Fprintln(v.W, "No questions yet.")
		return
	}
	for i, it := range items {
		mark := ""
		if it.Voted {
			mark = "  (upvoted)"
		}
		fmt.Fprintf(v.W, "%2d. [^ %d] %s%s\n", i+1, it.Votes, it.Text, mark)
	}
}

func (v *TextView) ShowModeration(items []ModerationItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.W, "---- moderation ----")
	if len(items) == 0 {
		fmt.Fprintln(v.W, "No questions.")
		return
	}
	for i, it := range items {
		fmt.Fprintf(v.W, "%2d. ^ %d · %s · %s\n    %s\n",
			i+1, it.Votes, humanize.RelTime(it.CreatedAt, v.Now(), "ago", "from now"), it.Label, it.Text)
	}
}

func (v *TextView) ShowError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.W, msg)
}

func (v *TextView) ShowStatus(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.W, "> "+msg)
}
