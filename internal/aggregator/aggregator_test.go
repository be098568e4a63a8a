package aggregator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment-insights-go/internal/types"
)

func result(brands []types.Brand, recs []types.Recommendation, opps []types.Opportunity) types.AnalysisResult {
	return types.OK(types.Insights{Brands: brands, Recommendations: recs, Opportunities: opps})
}

func TestMergeBrandDedup(t *testing.T) {
	got := Merge([]types.AnalysisResult{
		result([]types.Brand{{Name: "Nike", Category: "apparel", Sentiment: "neutral", Mentions: 3}}, nil, nil),
		result([]types.Brand{{Name: "NIKE", Category: "shoes", Sentiment: "positive", Mentions: 2}}, nil, nil),
	})

	require.Len(t, got.Brands, 1)
	assert.Equal(t, types.Brand{Name: "Nike", Category: "apparel", Sentiment: "positive", Mentions: 5}, got.Brands[0])
}

func TestMergeSentimentRules(t *testing.T) {
	cases := []struct {
		name string
		seq  []string
		want string
	}{
		{"neutral does not overwrite polarized", []string{"negative", "neutral"}, "negative"},
		{"mixed does not overwrite polarized", []string{"positive", "mixed"}, "positive"},
		{"polarized overwrites mixed", []string{"mixed", "negative"}, "negative"},
		{"last polarized wins", []string{"positive", "negative"}, "negative"},
		{"absent seeds neutral", []string{"", "mixed"}, "neutral"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var in []types.AnalysisResult
			for _, s := range tc.seq {
				in = append(in, result([]types.Brand{{Name: "Eurostar", Sentiment: s, Mentions: 1}}, nil, nil))
			}
			got := Merge(in)
			require.Len(t, got.Brands, 1)
			assert.Equal(t, tc.want, got.Brands[0].Sentiment)
		})
	}
}

func TestMergeBrandsSortedByMentionsStable(t *testing.T) {
	got := Merge([]types.AnalysisResult{
		result([]types.Brand{
			{Name: "A", Mentions: 1},
			{Name: "B", Mentions: 4},
			{Name: "C", Mentions: 1},
		}, nil, nil),
		result([]types.Brand{{Name: "a", Mentions: 1}, {Name: "D", Mentions: 2}}, nil, nil),
	})
	assert.Equal(t, []string{"B", "A", "D", "C"}, brandNames(got))
}

func TestMergeRecommendationsFirstSeenWins(t *testing.T) {
	got := Merge([]types.AnalysisResult{
		result(nil, []types.Recommendation{{Item: "Interrail pass", Category: "travel", Quote: "best summer ever", Endorsements: 2}}, nil),
		result(nil, []types.Recommendation{{Item: "interrail PASS", Category: "rail", Quote: "overpriced now", Endorsements: 3}}, nil),
	})

	require.Len(t, got.Recommendations, 1)
	rec := got.Recommendations[0]
	assert.Equal(t, "Interrail pass", rec.Item)
	assert.Equal(t, "travel", rec.Category)
	assert.Equal(t, "best summer ever", rec.Quote)
	assert.Equal(t, 5, rec.Endorsements)
}

func TestMergeRecommendationsTruncatedToTop(t *testing.T) {
	var recs []types.Recommendation
	for i := 0; i < 12; i++ {
		recs = append(recs, types.Recommendation{Item: fmt.Sprintf("item-%d", i), Endorsements: i})
	}
	got := Merge([]types.AnalysisResult{result(nil, recs, nil)})

	require.Len(t, got.Recommendations, MaxRecommendations)
	assert.Equal(t, "item-11", got.Recommendations[0].Item)
	assert.Equal(t, "item-4", got.Recommendations[MaxRecommendations-1].Item)
}

func TestMergeOpportunityDedup(t *testing.T) {
	got := Merge([]types.AnalysisResult{
		result(nil, nil, []types.Opportunity{{Type: "partnership", Target: "Nike", Rationale: "first"}}),
		result(nil, nil, []types.Opportunity{
			{Type: "Partnership", Target: "nike", Rationale: "second"},
			{Type: "affiliate", Target: "Nike", Rationale: "other type"},
		}),
	})

	require.Len(t, got.Opportunities, 2)
	assert.Equal(t, "first", got.Opportunities[0].Rationale)
	assert.Equal(t, "other type", got.Opportunities[1].Rationale)
}

func TestMergeOpportunitiesFirstFive(t *testing.T) {
	var opps []types.Opportunity
	for i := 0; i < 7; i++ {
		opps = append(opps, types.Opportunity{Type: "event", Target: fmt.Sprintf("t%d", i)})
	}
	got := Merge([]types.AnalysisResult{result(nil, nil, opps)})

	require.Len(t, got.Opportunities, MaxOpportunities)
	assert.Equal(t, "t0", got.Opportunities[0].Target)
	assert.Equal(t, "t4", got.Opportunities[4].Target)
}

func TestMergeDiscardsEmptyKeys(t *testing.T) {
	got := Merge([]types.AnalysisResult{result(
		[]types.Brand{{Name: "", Mentions: 9}},
		[]types.Recommendation{{Item: "", Endorsements: 9}},
		[]types.Opportunity{{Type: "event", Target: ""}},
	)})
	assert.True(t, got.IsEmpty())
}

func TestMergeSkipsErrorResults(t *testing.T) {
	bad := types.Unparsed("no JSON found", "sorry, I can't")
	bad.Brands = []types.Brand{{Name: "Ghost", Mentions: 100}}

	got := Merge([]types.AnalysisResult{
		bad,
		result([]types.Brand{{Name: "Real", Mentions: 1}}, nil, nil),
	})
	assert.Equal(t, []string{"Real"}, brandNames(got))
}

func TestMergeNoValidResults(t *testing.T) {
	for _, in := range [][]types.AnalysisResult{nil, {types.Unparsed("x", "y")}} {
		got := Merge(in)
		assert.Equal(t, types.EmptyInsights(), got)
		assert.NotNil(t, got.Brands)
		assert.NotNil(t, got.Recommendations)
		assert.NotNil(t, got.Opportunities)
	}
}

func TestMergeRegroupingKeepsTotals(t *testing.T) {
	a := result(
		[]types.Brand{{Name: "Ryanair", Sentiment: "negative", Mentions: 4}, {Name: "Lidl", Mentions: 1}},
		[]types.Recommendation{{Item: "Seat 61", Quote: "from a", Endorsements: 2}},
		[]types.Opportunity{{Type: "affiliate", Target: "rail", Rationale: "a"}},
	)
	b := result(
		[]types.Brand{{Name: "ryanair", Sentiment: "mixed", Mentions: 2}},
		[]types.Recommendation{{Item: "seat 61", Quote: "from b", Endorsements: 1}, {Item: "Flixbus", Endorsements: 1}},
		[]types.Opportunity{{Type: "affiliate", Target: "Rail", Rationale: "b"}},
	)
	c := result(
		[]types.Brand{{Name: "LIDL", Sentiment: "positive", Mentions: 3}},
		nil,
		[]types.Opportunity{{Type: "event", Target: "festivals", Rationale: "c"}},
	)

	flat := Merge([]types.AnalysisResult{a, b, c})
	nested := Merge([]types.AnalysisResult{types.OK(Merge([]types.AnalysisResult{a, b})), c})

	assert.Equal(t, mentionTotals(flat), mentionTotals(nested))
	assert.ElementsMatch(t, flat.Recommendations, nested.Recommendations)
	assert.ElementsMatch(t, flat.Opportunities, nested.Opportunities)

	// first-seen fields depend on order
	swapped := Merge([]types.AnalysisResult{b, a, c})
	assert.Equal(t, "from a", flat.Recommendations[0].Quote)
	assert.Equal(t, "from b", swapped.Recommendations[0].Quote)
	assert.Equal(t, "ryanair", swapped.Brands[0].Name)
	assert.Equal(t, mentionTotals(flat), mentionTotals(swapped))
}

func brandNames(in types.Insights) []string {
	out := make([]string, len(in.Brands))
	for i, b := range in.Brands {
		out[i] = b.Name
	}
	return out
}

func mentionTotals(in types.Insights) map[string]int {
	out := map[string]int{}
	for _, b := range in.Brands {
		out[types.Normalize(b.Name)] = b.Mentions
	}
	return out
}
