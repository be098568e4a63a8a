package digest

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"comment-insights-go/internal/types"
)

// Card is the one-line takeaway of a report.
type Card struct {
	Insight string `json:"insight" yaml:"insight"`
	Action  string `json:"action" yaml:"action"`
	Impact  string `json:"impact" yaml:"impact"`
}

// Generate picks the strongest signal of a merged report: the first
// opportunity, else a brand readers are negative about, else the most
// endorsed recommendation.
func Generate(in types.Insights) Card {
	mentions := 0
	for _, b := range in.Brands {
		mentions += b.Mentions
	}

	if len(in.Opportunities) > 0 {
		o := in.Opportunities[0]
		return Card{
			Insight: fmt.Sprintf("%s opportunity with %s", capitalize(o.Type), o.Target),
			Action:  o.Rationale,
			Impact:  fmt.Sprintf("%d brand mentions across %d brands", mentions, len(in.Brands)),
		}
	}
	for _, b := range in.Brands {
		if b.Sentiment == types.SentimentNegative {
			return Card{
				Insight: fmt.Sprintf("Readers are critical of %s (%d mentions)", b.Name, b.Mentions),
				Action:  fmt.Sprintf("Position alternatives to %s in %s", b.Name, orDefault(b.Category, "this category")),
				Impact:  "Capture readers looking to switch",
			}
		}
	}
	if len(in.Recommendations) > 0 {
		r := in.Recommendations[0]
		return Card{
			Insight: fmt.Sprintf("%s is the most endorsed recommendation (%d)", r.Item, r.Endorsements),
			Action:  fmt.Sprintf("Feature %s in related coverage", r.Item),
			Impact:  "Content readers already trust",
		}
	}
	return Card{
		Insight: "No strong commercial signal detected",
		Action:  "Monitor and collect more comments",
		Impact:  "Low immediate intervention",
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return "Commercial"
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
