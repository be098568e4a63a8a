// Package digest turns a finished run into a short human-readable summary.
package digest

import (
	"fmt"
	"strings"

	"comment-insights-go/internal/processor"
)

// Render formats run as plain text, one section per list.
func Render(run *processor.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Commercial insights: %s (%s)\n", run.Subject, run.Kind)
	fmt.Fprintf(&b, "Comments: %d total, %d analyzed", run.Meta.TotalComments, run.Meta.CommentsAnalyzed)
	if run.Meta.ArticlesWithComments > 1 {
		fmt.Fprintf(&b, ", %d articles", run.Meta.ArticlesWithComments)
	}
	b.WriteString("\n")
	if run.Failed > 0 {
		fmt.Fprintf(&b, "Batches: %d of %d failed\n", run.Failed, run.Batches)
	}
	if run.Empty {
		b.WriteString("\nNo comments to analyze.\n")
		return b.String()
	}

	if s := run.Sentiment; s != nil && s.Overall != nil {
		o := s.Overall
		fmt.Fprintf(&b, "\nReader mood: %d%% positive, %d%% neutral, %d%% negative", o.Positive, o.Neutral, o.Negative)
		if o.Summary != "" {
			fmt.Fprintf(&b, ". %s", o.Summary)
		}
		b.WriteString("\n")
	}
	if q := run.Questions; q != nil && len(q.Questions) > 0 {
		b.WriteString("\nDiscussion questions:\n")
		for _, dq := range q.Questions {
			fmt.Fprintf(&b, "  - %s\n", dq.Question)
		}
	}

	in := run.Insights
	if len(in.Brands) > 0 {
		b.WriteString("\nBrands:\n")
		for _, br := range in.Brands {
			fmt.Fprintf(&b, "  - %s", br.Name)
			if br.Category != "" {
				fmt.Fprintf(&b, " (%s)", br.Category)
			}
			fmt.Fprintf(&b, ": %s, %d mention%s\n", orDefault(br.Sentiment, "neutral"), br.Mentions, plural(br.Mentions))
		}
	}
	if len(in.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range in.Recommendations {
			fmt.Fprintf(&b, "  - %s x%d", r.Item, r.Endorsements)
			if r.Quote != "" {
				fmt.Fprintf(&b, ": %q", r.Quote)
			}
			b.WriteString("\n")
		}
	}
	if len(in.Opportunities) > 0 {
		b.WriteString("\nOpportunities:\n")
		for _, o := range in.Opportunities {
			fmt.Fprintf(&b, "  - [%s] %s: %s\n", orDefault(o.Type, "other"), o.Target, o.Rationale)
		}
	}

	card := Generate(in)
	fmt.Fprintf(&b, "\nNext step: %s. %s (%s)\n", card.Insight, card.Action, card.Impact)
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
