package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"comment-insights-go/internal/types"
)

// Editorial produces the reader-facing sections of a single-article
// report. Like Analyze, unparseable output is an error-tagged result and
// errors mean no output at all.
type Editorial interface {
	DiscussionQuestions(ctx context.Context, commentsText string, subject types.Subject) (types.QuestionsResult, error)
	Sentiment(ctx context.Context, commentsText string, subject types.Subject) (types.SentimentResult, error)
}

var (
	_ Editorial = (*GatewayClient)(nil)
	_ Editorial = (*OpenAIClient)(nil)
	_ Editorial = (*MockClient)(nil)
)

var (
	errNoQuestions = errors.New("no questions in output")
	errNoSentiment = errors.New("no overall or byTopic sentiment in output")
)

// BuildQuestionsPrompt asks for three short questions to publish with the
// article, using the comments to understand what it is about.
func BuildQuestionsPrompt(commentsText string, subject types.Subject) string {
	return fmt.Sprintf(`You help a journalist publish discussion questions alongside the article %q.
Read the existing comments below to understand the article's subject and the issues readers care about, then write 3 questions to publish with the article.

Each question must be one short sentence (under 20 words), conversational and free of jargon, and about the article's own subject rather than a tangent.

COMMENTS:
%s

Return ONLY valid JSON in this shape, with no other text:
{"questions": [{"question": "", "intent": "what the question aims to surface"}]}
`, subject.Label, commentsText)
}

// BuildSentimentPrompt asks for the overall mood and the mood per topic.
func BuildSentimentPrompt(commentsText string, subject types.Subject) string {
	return fmt.Sprintf(`Analyze the sentiment of these reader comments on the article %q.

COMMENTS:
%s

Return ONLY valid JSON in this shape, with no other text:
{
  "overall": {"positive": 0, "neutral": 0, "negative": 0, "summary": "one sentence on the overall mood"},
  "byTopic": [{"topic": "", "sentiment": "positive|negative|mixed|neutral", "percentage": 0, "explanation": ""}]
}

Include 3-5 topics. The overall percentages must sum to 100.
`, subject.Label, commentsText)
}

// ParseQuestions decodes a questions object, recovering it from
// surrounding prose when needed.
func ParseQuestions(raw string) types.QuestionsResult {
	qs, err := parseStaged(raw, decodeQuestions)
	if err != nil {
		return types.QuestionsResult{Error: fmt.Sprintf("failed to parse discussion questions: %v", err), Raw: raw}
	}
	return types.QuestionsResult{Questions: qs}
}

// ParseSentiment decodes a sentiment object the same way.
func ParseSentiment(raw string) types.SentimentResult {
	res, err := parseStaged(raw, decodeSentiment)
	if err != nil {
		return types.SentimentResult{Error: fmt.Sprintf("failed to parse sentiment analysis: %v", err), Raw: raw}
	}
	return res
}

func decodeQuestions(data []byte) ([]types.DiscussionQuestion, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	if _, ok := top["error"]; ok {
		return nil, errReportedFailed
	}
	raw, ok := top["questions"]
	if !ok {
		return nil, errNoQuestions
	}
	var list []types.DiscussionQuestion
	if err := decodeList(raw, &list); err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}
	out := make([]types.DiscussionQuestion, 0, len(list))
	for _, q := range list {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question != "" {
			out = append(out, q)
		}
	}
	return out, nil
}

type wireSentiment struct {
	Overall *struct {
		Positive *flexInt `json:"positive"`
		Neutral  *flexInt `json:"neutral"`
		Negative *flexInt `json:"negative"`
		Summary  string   `json:"summary"`
	} `json:"overall"`
	ByTopic []struct {
		Topic       string   `json:"topic"`
		Sentiment   string   `json:"sentiment"`
		Percentage  *flexInt `json:"percentage"`
		Explanation string   `json:"explanation"`
	} `json:"byTopic"`
}

func decodeSentiment(data []byte) (types.SentimentResult, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return types.SentimentResult{}, err
	}
	if _, ok := top["error"]; ok {
		return types.SentimentResult{}, errReportedFailed
	}
	_, hasOverall := top["overall"]
	_, hasTopics := top["byTopic"]
	if !hasOverall && !hasTopics {
		return types.SentimentResult{}, errNoSentiment
	}

	var w wireSentiment
	if err := json.Unmarshal(data, &w); err != nil {
		return types.SentimentResult{}, fmt.Errorf("sentiment: %w", err)
	}
	res := types.SentimentResult{ByTopic: []types.TopicSentiment{}}
	if o := w.Overall; o != nil {
		res.Overall = &types.OverallSentiment{
			Positive: percent(o.Positive),
			Neutral:  percent(o.Neutral),
			Negative: percent(o.Negative),
			Summary:  o.Summary,
		}
	}
	for _, t := range w.ByTopic {
		if strings.TrimSpace(t.Topic) == "" {
			continue
		}
		res.ByTopic = append(res.ByTopic, types.TopicSentiment{
			Topic:       t.Topic,
			Sentiment:   strings.ToLower(strings.TrimSpace(t.Sentiment)),
			Percentage:  percent(t.Percentage),
			Explanation: t.Explanation,
		})
	}
	return res, nil
}

func percent(f *flexInt) int {
	return min(f.orDefault(0), 100)
}
