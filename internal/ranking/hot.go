// Package ranking orders forum threads for the "hot" listing.
package ranking

import (
	"math"
	"slices"
	"time"
)

const (
	// DecayWindow is how long a thread keeps any recency weight after its last activity.
	DecayWindow = 168 * time.Hour

	commentWeightFactor = 10.0
)

// Activity is the slice of a thread that the hot score reads.
type Activity struct {
	CommentCount    int
	CreatedAt       time.Time
	LatestCommentAt *time.Time
}

// LastActivity returns the latest comment time, or the creation time when the
// thread has no comments.
func LastActivity(a Activity) time.Time {
	if a.LatestCommentAt != nil && !a.LatestCommentAt.IsZero() {
		return *a.LatestCommentAt
	}
	return a.CreatedAt
}

// HotScore scores a thread at the instant now. Higher scores sort first.
//
//	score = comments * max(0, 1 - hoursSinceActivity/168) + log10(comments+1) * 10
func HotScore(a Activity, now time.Time) float64 {
	comments := a.CommentCount
	if comments < 0 {
		comments = 0
	}

	hours := now.Sub(LastActivity(a)).Hours()
	if hours < 0 {
		// clock skew between writers and the evaluating node
		hours = 0
	}

	recency := 1 - hours/DecayWindow.Hours()
	if recency < 0 {
		recency = 0
	}

	score := float64(comments)*recency + math.Log10(float64(comments)+1)*commentWeightFactor
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

// Less reports whether a ranks strictly ahead of b.
// Ties on score fall back to the more recent last activity.
func Less(a, b Activity, now time.Time) bool {
	return compare(a, b, now) < 0
}

func compare(a, b Activity, now time.Time) int {
	sa, sb := HotScore(a, now), HotScore(b, now)
	switch {
	case sa > sb:
		return -1
	case sa < sb:
		return 1
	}
	return LastActivity(b).Compare(LastActivity(a))
}

// SortHot sorts items in place, hottest first. Items that tie on both score
// and last activity keep their input order.
func SortHot[T any](items []T, activity func(T) Activity, now time.Time) {
	if len(items) < 2 {
		return
	}
	type scored struct {
		item  T
		score float64
		last  time.Time
	}
	buf := make([]scored, len(items))
	for i, it := range items {
		a := activity(it)
		buf[i] = scored{item: it, score: HotScore(a, now), last: LastActivity(a)}
	}
	slices.SortStableFunc(buf, func(x, y scored) int {
		switch {
		case x.score > y.score:
			return -1
		case x.score < y.score:
			return 1
		}
		return y.last.Compare(x.last)
	})
	for i := range buf {
		items[i] = buf[i].item
	}
}
