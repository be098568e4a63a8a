package types

// DiscussionQuestion is a prompt that could be published with an article
// to start reader debate.
type DiscussionQuestion struct {
	Question string `json:"question" yaml:"question"`
	Intent   string `json:"intent" yaml:"intent"`
}

// QuestionsResult is either a list of questions or an error tag with the
// raw model output.
type QuestionsResult struct {
	Questions []DiscussionQuestion `json:"questions,omitempty" yaml:"questions,omitempty"`
	Error     string               `json:"error,omitempty" yaml:"error,omitempty"`
	Raw       string               `json:"raw,omitempty" yaml:"raw,omitempty"`
}

func (r QuestionsResult) Failed() bool { return r.Error != "" }

// OverallSentiment splits comments into percentages that sum to 100.
type OverallSentiment struct {
	Positive int    `json:"positive" yaml:"positive"`
	Neutral  int    `json:"neutral" yaml:"neutral"`
	Negative int    `json:"negative" yaml:"negative"`
	Summary  string `json:"summary" yaml:"summary"`
}

type TopicSentiment struct {
	Topic       string `json:"topic" yaml:"topic"`
	Sentiment   string `json:"sentiment" yaml:"sentiment"`
	Percentage  int    `json:"percentage" yaml:"percentage"`
	Explanation string `json:"explanation" yaml:"explanation"`
}

// SentimentResult is the reader mood of one article, or an error tag.
type SentimentResult struct {
	Overall *OverallSentiment `json:"overall,omitempty" yaml:"overall,omitempty"`
	ByTopic []TopicSentiment  `json:"byTopic,omitempty" yaml:"byTopic,omitempty"`
	Error   string            `json:"error,omitempty" yaml:"error,omitempty"`
	Raw     string            `json:"raw,omitempty" yaml:"raw,omitempty"`
}

func (r SentimentResult) Failed() bool { return r.Error != "" }
