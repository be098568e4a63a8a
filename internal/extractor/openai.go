package extractor

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/types"
)

// OpenAIClient analyzes comments through the OpenAI chat completions API,
// or any compatible endpoint when a gateway URL is configured.
type OpenAIClient struct {
	client    openai.Client
	model     string
	maxTokens int
	parser    Parser
	log       *logrus.Entry
}

func NewOpenAIClient(cfg config.LLMConfig, log *logrus.Entry) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(int(cfg.MaxRetries)),
	}
	if cfg.GatewayURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.GatewayURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAIClient{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		parser:    DefaultParser,
		log:       log.WithField("component", "extractor-openai"),
	}
}

const systemPrompt = "You analyze newspaper reader comments for an editorial and commercial team. Reply with JSON only."

func (c *OpenAIClient) Analyze(ctx context.Context, commentsText string, subject types.Subject) (types.AnalysisResult, error) {
	content, err := c.complete(ctx, BuildPrompt(commentsText, subject))
	if err != nil {
		return types.AnalysisResult{}, err
	}
	res := c.parser.Parse(content)
	if res.Failed() {
		c.log.WithField("subject", subject.Label).WithField("reason", res.Error).Warn("openai output could not be parsed")
	}
	return res, nil
}

func (c *OpenAIClient) DiscussionQuestions(ctx context.Context, commentsText string, subject types.Subject) (types.QuestionsResult, error) {
	content, err := c.complete(ctx, BuildQuestionsPrompt(commentsText, subject))
	if err != nil {
		return types.QuestionsResult{}, err
	}
	res := ParseQuestions(content)
	if res.Failed() {
		c.log.WithField("subject", subject.Label).WithField("reason", res.Error).Warn("openai output could not be parsed")
	}
	return res, nil
}

func (c *OpenAIClient) Sentiment(ctx context.Context, commentsText string, subject types.Subject) (types.SentimentResult, error) {
	content, err := c.complete(ctx, BuildSentimentPrompt(commentsText, subject))
	if err != nil {
		return types.SentimentResult{}, err
	}
	res := ParseSentiment(content)
	if res.Failed() {
		c.log.WithField("subject", subject.Label).WithField("reason", res.Error).Warn("openai output could not be parsed")
	}
	return res, nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
