package extractor

import (
	"fmt"

	"comment-insights-go/internal/types"
)

const reportSchema = `{
  "brands": [
    {"name": "", "category": "", "sentiment": "positive|negative|mixed|neutral", "mentions": 0}
  ],
  "recommendations": [
    {"item": "", "category": "", "quote": "", "endorsements": 0}
  ],
  "opportunities": [
    {"type": "sponsored content|affiliate|display advertising|partnership|event", "target": "", "rationale": ""}
  ]
}`

// BuildPrompt renders the commercial-opportunities prompt for one block of
// formatted comments. Subjects spanning several articles get the aggregated
// wording.
func BuildPrompt(commentsText string, subject types.Subject) string {
	scope := fmt.Sprintf("reader comments on %q", subject.Label)
	heading := "COMMENTS"
	if subject.Aggregated() {
		scope = fmt.Sprintf("reader comments from %d articles about %q. Focus on brands and patterns that recur across the discussion", subject.Count, subject.Label)
		heading = fmt.Sprintf("COMMENTS FROM %d ARTICLES", subject.Count)
	}

	prompt := `Analyze these %s to identify commercial and advertising opportunities.

Extract:
1. Brands and products readers name or discuss (companies, products, services, destinations, hotels, airlines, restaurants).
2. Reader recommendations: specific things readers recommend to others, each with a direct quote as evidence.
3. Commercial opportunities: advertising or partnership angles a commercial team could pursue.

%s:
%s

Return ONLY valid JSON in this shape, with no other text:
%s

Include every brand mentioned, 3-8 recommendations and 3-5 opportunities ordered by potential value.
If the comments contain no brand mentions or recommendations, return empty arrays.
`
	return fmt.Sprintf(prompt, scope, heading, commentsText, reportSchema)
}
