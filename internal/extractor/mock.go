package extractor

import (
	"context"
	"sync/atomic"

	"comment-insights-go/internal/types"
)

// mockOutput mimics a model that wraps its JSON in prose, so offline demos
// exercise the recovery parser too.
const mockOutput = "Here is the analysis you asked for:\n```json\n" + `{
  "brands": [
    {"name": "Eurostar", "category": "rail", "sentiment": "positive", "mentions": 4},
    {"name": "Ryanair", "category": "airline", "sentiment": "negative", "mentions": 3}
  ],
  "recommendations": [
    {"item": "Interrail pass", "category": "travel", "quote": "Best money I ever spent on a summer.", "endorsements": 3}
  ],
  "opportunities": [
    {"type": "partnership", "target": "rail operators", "rationale": "Readers repeatedly prefer trains over short-haul flights."}
  ]
}` + "\n```"

const mockQuestions = `{"questions": [
  {"question": "Would you swap a short-haul flight for a sleeper train?", "intent": "Willingness to change travel habits"},
  {"question": "What would make rail travel across Europe easier to book?", "intent": "Practical barriers readers face"},
  {"question": "Should governments subsidise night trains?", "intent": "Views on public funding"}
]}`

const mockSentiment = `{
  "overall": {"positive": 55, "neutral": 25, "negative": 20, "summary": "Readers are broadly enthusiastic about rail travel but frustrated by prices."},
  "byTopic": [
    {"topic": "Ticket prices", "sentiment": "negative", "percentage": 40, "explanation": "Many find rail fares too high."},
    {"topic": "Sleeper trains", "sentiment": "positive", "percentage": 35, "explanation": "Readers share fond journeys."},
    {"topic": "Budget airlines", "sentiment": "mixed", "percentage": 25, "explanation": "Cheap but unpleasant."}
  ]
}`

// MockClient returns a deterministic analysis without network access.
type MockClient struct {
	calls atomic.Int64
}

func NewMockClient() *MockClient { return &MockClient{} }

func (m *MockClient) Analyze(ctx context.Context, _ string, _ types.Subject) (types.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return types.AnalysisResult{}, err
	}
	m.calls.Add(1)
	return DefaultParser.Parse(mockOutput), nil
}

func (m *MockClient) DiscussionQuestions(ctx context.Context, _ string, _ types.Subject) (types.QuestionsResult, error) {
	if err := ctx.Err(); err != nil {
		return types.QuestionsResult{}, err
	}
	m.calls.Add(1)
	return ParseQuestions(mockQuestions), nil
}

func (m *MockClient) Sentiment(ctx context.Context, _ string, _ types.Subject) (types.SentimentResult, error) {
	if err := ctx.Err(); err != nil {
		return types.SentimentResult{}, err
	}
	m.calls.Add(1)
	return ParseSentiment(mockSentiment), nil
}

// Calls reports how many analyses were served.
func (m *MockClient) Calls() int { return int(m.calls.Load()) }
