package types

import "strings"

// Comment is one reader comment as returned by the fetch collaborator.
type Comment struct {
	Body           string `json:"body"`
	RecommendCount int    `json:"recommendCount"`
	AuthorName     string `json:"authorName"`
	AuthorID       string `json:"authorId,omitempty"`
	ArticleTitle   string `json:"articleTitle,omitempty"`
}

// CommentBatch is a contiguous slice of a priority-sorted comment sequence.
type CommentBatch []Comment

// Subject describes what is being analyzed: an article title, or a
// keyword/section label together with the number of contributing articles.
type Subject struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Aggregated reports whether the subject spans more than one article.
func (s Subject) Aggregated() bool { return s.Count > 1 }

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// Polarized reports whether sentiment is positive or negative.
func Polarized(sentiment string) bool {
	return sentiment == SentimentPositive || sentiment == SentimentNegative
}

type Brand struct {
	Name      string `json:"name" yaml:"name"`
	Category  string `json:"category" yaml:"category"`
	Sentiment string `json:"sentiment" yaml:"sentiment"`
	Mentions  int    `json:"mentions" yaml:"mentions"`
}

type Recommendation struct {
	Item         string `json:"item" yaml:"item"`
	Category     string `json:"category" yaml:"category"`
	Quote        string `json:"quote" yaml:"quote"`
	Endorsements int    `json:"endorsements" yaml:"endorsements"`
}

type Opportunity struct {
	Type      string `json:"type" yaml:"type"`
	Target    string `json:"target" yaml:"target"`
	Rationale string `json:"rationale" yaml:"rationale"`
}

// Key is the normalized deduplication key of a brand.
func (b Brand) Key() string { return Normalize(b.Name) }

// Key is the normalized deduplication key of a recommendation.
func (r Recommendation) Key() string { return Normalize(r.Item) }

// OpportunityKey identifies an opportunity by normalized target and type.
type OpportunityKey struct {
	Target string
	Type   string
}

func (o Opportunity) Key() OpportunityKey {
	return OpportunityKey{Target: Normalize(o.Target), Type: Normalize(o.Type)}
}

// Normalize case-folds text for deduplication equality.
func Normalize(s string) string { return strings.ToLower(s) }

// Insights is the three-section commercial report shape shared by a single
// analysis result and a merged result.
type Insights struct {
	Brands          []Brand          `json:"brands" yaml:"brands"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
	Opportunities   []Opportunity    `json:"opportunities" yaml:"opportunities"`
}

// EmptyInsights returns the canonical empty report. Its sections serialize
// as empty arrays rather than null.
func EmptyInsights() Insights {
	return Insights{
		Brands:          []Brand{},
		Recommendations: []Recommendation{},
		Opportunities:   []Opportunity{},
	}
}

// Normalized replaces nil sections with empty ones.
func (in Insights) Normalized() Insights {
	if in.Brands == nil {
		in.Brands = []Brand{}
	}
	if in.Recommendations == nil {
		in.Recommendations = []Recommendation{}
	}
	if in.Opportunities == nil {
		in.Opportunities = []Opportunity{}
	}
	return in
}

func (in Insights) IsEmpty() bool {
	return len(in.Brands) == 0 && len(in.Recommendations) == 0 && len(in.Opportunities) == 0
}

// AnalysisResult is the outcome of one analysis call: either parsed Insights,
// or an error tag carrying the raw text that could not be parsed.
type AnalysisResult struct {
	Insights
	Error string `json:"error,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// OK wraps parsed insights as a successful result.
func OK(in Insights) AnalysisResult {
	return AnalysisResult{Insights: in.Normalized()}
}

// Unparsed returns an error-tagged result.
func Unparsed(reason, raw string) AnalysisResult {
	return AnalysisResult{Error: reason, Raw: raw}
}

func (r AnalysisResult) Failed() bool { return r.Error != "" }
