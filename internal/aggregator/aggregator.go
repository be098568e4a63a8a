package aggregator

import (
	"sort"

	"comment-insights-go/internal/types"
)

const (
	MaxRecommendations = 8
	MaxOpportunities   = 5
)

// Merge folds per-batch results into one deduplicated report. Error-tagged
// results are skipped. Brands sum mentions and take the last polarized
// sentiment; recommendations sum endorsements and keep the first quote and
// category; opportunities keep the first entry per (target, type).
func Merge(results []types.AnalysisResult) types.Insights {
	brands := map[string]*types.Brand{}
	var brandOrder []string
	recs := map[string]*types.Recommendation{}
	var recOrder []string
	opps := map[types.OpportunityKey]bool{}
	var oppList []types.Opportunity

	for _, r := range results {
		if r.Failed() {
			continue
		}

		for _, b := range r.Brands {
			key := b.Key()
			if key == "" {
				continue
			}
			if cur, ok := brands[key]; ok {
				cur.Mentions += b.Mentions
				if types.Polarized(b.Sentiment) {
					cur.Sentiment = b.Sentiment
				}
				continue
			}
			seed := b
			if seed.Sentiment == "" {
				seed.Sentiment = types.SentimentNeutral
			}
			brands[key] = &seed
			brandOrder = append(brandOrder, key)
		}

		for _, rec := range r.Recommendations {
			key := rec.Key()
			if key == "" {
				continue
			}
			if cur, ok := recs[key]; ok {
				cur.Endorsements += rec.Endorsements
				continue
			}
			seed := rec
			recs[key] = &seed
			recOrder = append(recOrder, key)
		}

		for _, o := range r.Opportunities {
			key := o.Key()
			if key.Target == "" || opps[key] {
				continue
			}
			opps[key] = true
			oppList = append(oppList, o)
		}
	}

	out := types.EmptyInsights()
	for _, k := range brandOrder {
		out.Brands = append(out.Brands, *brands[k])
	}
	sort.SliceStable(out.Brands, func(i, j int) bool {
		return out.Brands[i].Mentions > out.Brands[j].Mentions
	})

	for _, k := range recOrder {
		out.Recommendations = append(out.Recommendations, *recs[k])
	}
	sort.SliceStable(out.Recommendations, func(i, j int) bool {
		return out.Recommendations[i].Endorsements > out.Recommendations[j].Endorsements
	})
	if len(out.Recommendations) > MaxRecommendations {
		out.Recommendations = out.Recommendations[:MaxRecommendations]
	}

	if len(oppList) > MaxOpportunities {
		oppList = oppList[:MaxOpportunities]
	}
	out.Opportunities = append(out.Opportunities, oppList...)
	return out
}
