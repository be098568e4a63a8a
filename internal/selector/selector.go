// Package selector picks a bounded, representative subset of comments and
// renders comments as annotated lines for the analysis prompt.
package selector

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"comment-insights-go/internal/types"
)

// DefaultMax is the number of comments sent for a single-article analysis.
const DefaultMax = 200

// SortByRecommends returns a copy of comments ordered by recommend count,
// highest first. Ties keep their original relative order.
func SortByRecommends(comments []types.Comment) []types.Comment {
	out := make([]types.Comment, len(comments))
	copy(out, comments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecommendCount > out[j].RecommendCount
	})
	return out
}

// Select returns at most maxCount comments: the top half of the budget
// verbatim by recommend count, the rest an evenly spaced sample of the
// remaining tail.
func Select(comments []types.Comment, maxCount int) []types.Comment {
	if maxCount <= 0 || len(comments) == 0 {
		return []types.Comment{}
	}
	sorted := SortByRecommends(comments)
	if len(sorted) <= maxCount {
		return sorted
	}

	head := maxCount / 2
	tailBudget := maxCount - head
	rest := sorted[head:]

	stride := 1
	if len(rest) > tailBudget {
		stride = len(rest) / tailBudget
	}

	selected := make([]types.Comment, 0, maxCount)
	selected = append(selected, sorted[:head]...)
	for i := 0; i < len(rest) && len(selected) < maxCount; i += stride {
		selected = append(selected, rest[i])
	}
	return selected
}

var (
	markupRe     = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanBody strips markup tags and collapses whitespace. Clean text is
// returned unchanged.
func CleanBody(body string) string {
	clean := markupRe.ReplaceAllString(body, " ")
	clean = whitespaceRe.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// FormatLine renders one comment with its 1-based index, like count and author.
func FormatLine(index int, c types.Comment) string {
	author := c.AuthorName
	if author == "" {
		author = "Anonymous"
	}
	return fmt.Sprintf("[Comment %d] (%d likes) @%s: %s", index, c.RecommendCount, author, CleanBody(c.Body))
}

// Format renders comments as a prompt block, one paragraph per comment.
func Format(comments []types.Comment) string {
	lines := make([]string, len(comments))
	for i, c := range comments {
		lines[i] = FormatLine(i+1, c)
	}
	return strings.Join(lines, "\n\n")
}
