package selector

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment-insights-go/internal/types"
)

func makeComments(recommends ...int) []types.Comment {
	out := make([]types.Comment, len(recommends))
	for i, r := range recommends {
		out[i] = types.Comment{
			Body:           fmt.Sprintf("comment %d", i),
			RecommendCount: r,
			AuthorName:     fmt.Sprintf("user%d", i),
		}
	}
	return out
}

func descending(n int) []types.Comment {
	rec := make([]int, n)
	for i := range rec {
		rec[i] = n - i
	}
	return makeComments(rec...)
}

func TestSelectUnderBudgetReturnsAllSorted(t *testing.T) {
	in := makeComments(3, 10, 3, 0, 7)
	got := Select(in, 10)

	require.Len(t, got, 5)
	assert.Equal(t, []string{"comment 1", "comment 4", "comment 0", "comment 2", "comment 3"}, bodies(got))
}

func TestSelectKeepsInputUntouched(t *testing.T) {
	in := makeComments(1, 5, 3)
	_ = Select(in, 10)
	assert.Equal(t, 1, in[0].RecommendCount)
	assert.Equal(t, 5, in[1].RecommendCount)
}

func TestSelectOverBudget(t *testing.T) {
	in := descending(1000)
	got := Select(in, 200)

	require.Len(t, got, 200)
	sorted := SortByRecommends(in)
	assert.Equal(t, sorted[:100], got[:100], "head is the global top half")

	// tail: 900 remaining, stride 9
	assert.Equal(t, sorted[100], got[100])
	assert.Equal(t, sorted[109], got[101])
	assert.Equal(t, sorted[100+99*9], got[199])
}

func TestSelectSampleStride(t *testing.T) {
	in := descending(15)
	got := Select(in, 10)

	require.Len(t, got, 10)
	sorted := SortByRecommends(in)
	assert.Equal(t, sorted[:5], got[:5])
	// 10 remaining over a budget of 5: every second one
	assert.Equal(t, []types.Comment{sorted[5], sorted[7], sorted[9], sorted[11], sorted[13]}, got[5:])
}

func TestSelectOddBudgetIsExact(t *testing.T) {
	in := descending(50)
	for _, max := range []int{1, 3, 7, 49} {
		got := Select(in, max)
		assert.Len(t, got, max, "max=%d", max)
		assert.Equal(t, SortByRecommends(in)[:max/2], got[:max/2])
	}
}

func TestSelectStableTies(t *testing.T) {
	in := makeComments(5, 5, 5, 5)
	got := Select(in, 4)
	assert.Equal(t, []string{"comment 0", "comment 1", "comment 2", "comment 3"}, bodies(got))
}

func TestSelectEmpty(t *testing.T) {
	assert.Empty(t, Select(nil, 200))
	assert.NotNil(t, Select(nil, 200))
	assert.Empty(t, Select(descending(10), 0))
	assert.Empty(t, Select(descending(10), -3))
}

func TestCleanBody(t *testing.T) {
	cases := map[string]string{
		"<p>Hello <b>world</b></p>":        "Hello world",
		"  spaced\n\n\tout   text ":        "spaced out text",
		"line<br/>break":                   "line break",
		"already clean":                    "already clean",
		"<blockquote>quoted</blockquote>x": "quoted x",
	}
	for in, want := range cases {
		got := CleanBody(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, CleanBody(got), "idempotent on %q", in)
	}
}

func TestFormatLine(t *testing.T) {
	c := types.Comment{Body: "<p>Try the <i>night train</i></p>", RecommendCount: 42, AuthorName: "railfan"}
	assert.Equal(t, "[Comment 3] (42 likes) @railfan: Try the night train", FormatLine(3, c))

	anon := types.Comment{Body: "hi"}
	assert.Equal(t, "[Comment 1] (0 likes) @Anonymous: hi", FormatLine(1, anon))
}

func TestFormatIndicesStartAtOne(t *testing.T) {
	got := Format(makeComments(2, 1))
	assert.Equal(t, "[Comment 1] (2 likes) @user0: comment 0\n\n[Comment 2] (1 likes) @user1: comment 1", got)
	assert.Equal(t, "", Format(nil))
}

func bodies(cs []types.Comment) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Body
	}
	return out
}
