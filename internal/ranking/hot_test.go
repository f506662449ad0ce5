package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestHotScore_ZeroCommentsAlwaysZero(t *testing.T) {
	t.Parallel()

	for _, age := range []time.Duration{0, time.Minute, 5 * time.Hour, 167 * time.Hour, 400 * time.Hour, -3 * time.Hour} {
		score := HotScore(Activity{CommentCount: 0, CreatedAt: now.Add(-age)}, now)
		assert.Equal(t, 0.0, score, "age %s", age)
	}
}

func TestHotScore_WorkedExample(t *testing.T) {
	t.Parallel()

	a := Activity{CommentCount: 10, CreatedAt: now.Add(-300 * time.Hour), LatestCommentAt: ptr(now.Add(-time.Hour))}
	b := Activity{CommentCount: 10, CreatedAt: now.Add(-300 * time.Hour), LatestCommentAt: ptr(now.Add(-200 * time.Hour))}

	scoreA := HotScore(a, now)
	scoreB := HotScore(b, now)

	wantA := 10*(1-1.0/168) + math.Log10(11)*10
	assert.InDelta(t, wantA, scoreA, 1e-9)
	assert.InDelta(t, 20.35, scoreA, 0.01)
	assert.InDelta(t, math.Log10(11)*10, scoreB, 1e-9)
	assert.True(t, Less(a, b, now))
	assert.False(t, Less(b, a, now))
}

func TestHotScore_StaleThreadKeepsOnlyCommentWeight(t *testing.T) {
	t.Parallel()

	a := Activity{CommentCount: 3, CreatedAt: now.Add(-8 * 24 * time.Hour)}
	assert.InDelta(t, math.Log10(4)*10, HotScore(a, now), 1e-9)
}

func TestHotScore_MonotonicInAge(t *testing.T) {
	t.Parallel()

	for _, comments := range []int{0, 1, 7, 250} {
		prev := math.Inf(1)
		for h := 0; h <= 200; h += 4 {
			a := Activity{CommentCount: comments, CreatedAt: now.Add(-time.Duration(h) * time.Hour)}
			score := HotScore(a, now)
			assert.LessOrEqual(t, score, prev, "comments=%d hours=%d", comments, h)
			prev = score
		}
	}
}

func TestHotScore_FutureActivityClampsToFullRecency(t *testing.T) {
	t.Parallel()

	future := Activity{CommentCount: 4, CreatedAt: now.Add(2 * time.Hour)}
	fresh := Activity{CommentCount: 4, CreatedAt: now}
	assert.Equal(t, HotScore(fresh, now), HotScore(future, now))
}

func TestHotScore_NegativeCommentCountIsClamped(t *testing.T) {
	t.Parallel()

	score := HotScore(Activity{CommentCount: -5, CreatedAt: now}, now)
	assert.Equal(t, 0.0, score)
	assert.False(t, math.IsNaN(score))
}

func TestLastActivity(t *testing.T) {
	t.Parallel()

	created := now.Add(-48 * time.Hour)
	assert.Equal(t, created, LastActivity(Activity{CreatedAt: created}))
	assert.Equal(t, created, LastActivity(Activity{CreatedAt: created, LatestCommentAt: &time.Time{}}))

	latest := now.Add(-time.Hour)
	assert.Equal(t, latest, LastActivity(Activity{CreatedAt: created, LatestCommentAt: &latest}))
}

type thread struct {
	id       int
	comments int
	created  time.Time
	latest   *time.Time
}

func threadActivity(t thread) Activity {
	return Activity{CommentCount: t.comments, CreatedAt: t.created, LatestCommentAt: t.latest}
}

func TestSortHot_TieBreakOnLastActivity(t *testing.T) {
	t.Parallel()

	threads := []thread{
		{id: 1, created: now.Add(-10 * time.Hour)},
		{id: 2, created: now.Add(-1 * time.Hour)},
		{id: 3, created: now.Add(-5 * time.Hour)},
	}
	SortHot(threads, threadActivity, now)

	ids := []int{threads[0].id, threads[1].id, threads[2].id}
	assert.Equal(t, []int{2, 3, 1}, ids)
}

func TestSortHot_Order(t *testing.T) {
	t.Parallel()

	threads := []thread{
		{id: 1, comments: 10, created: now.Add(-300 * time.Hour), latest: ptr(now.Add(-200 * time.Hour))},
		{id: 2, comments: 0, created: now},
		{id: 3, comments: 10, created: now.Add(-300 * time.Hour), latest: ptr(now.Add(-time.Hour))},
		{id: 4, comments: 2, created: now.Add(-2 * time.Hour)},
	}
	SortHot(threads, threadActivity, now)

	got := make([]int, 0, len(threads))
	for _, th := range threads {
		got = append(got, th.id)
	}
	require.Len(t, got, 4)
	assert.Equal(t, []int{3, 1, 4, 2}, got)
}

func TestSortHot_FullTiesAreStable(t *testing.T) {
	t.Parallel()

	created := now.Add(-3 * time.Hour)
	threads := []thread{{id: 7, created: created}, {id: 3, created: created}, {id: 9, created: created}}
	SortHot(threads, threadActivity, now)

	assert.Equal(t, 7, threads[0].id)
	assert.Equal(t, 3, threads[1].id)
	assert.Equal(t, 9, threads[2].id)
}

func TestSortHot_SmallInputs(t *testing.T) {
	t.Parallel()

	var empty []thread
	SortHot(empty, threadActivity, now)
	assert.Empty(t, empty)

	one := []thread{{id: 1}}
	SortHot(one, threadActivity, now)
	assert.Equal(t, 1, one[0].id)
}
