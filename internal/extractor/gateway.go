package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/types"
)

// GatewayClient posts chat-completion requests to an HTTP LLM gateway.
type GatewayClient struct {
	url        string
	apiKey     string
	model      string
	maxTokens  int
	maxRetries uint64
	maxElapsed time.Duration
	http       *http.Client
	parser     Parser
	log        *logrus.Entry
}

func NewGatewayClient(cfg config.LLMConfig, log *logrus.Entry) *GatewayClient {
	return &GatewayClient{
		url:        cfg.GatewayURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		maxRetries: cfg.MaxRetries,
		maxElapsed: cfg.Timeout,
		http:       &http.Client{Timeout: cfg.Timeout},
		parser:     DefaultParser,
		log:        log.WithField("component", "extractor-gateway"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

func (c *GatewayClient) Analyze(ctx context.Context, commentsText string, subject types.Subject) (types.AnalysisResult, error) {
	log := c.log.WithFields(logrus.Fields{"subject": subject.Label, "task": "commercial"})
	content, err := c.complete(ctx, BuildPrompt(commentsText, subject), log)
	if err != nil {
		return types.AnalysisResult{}, err
	}
	res := c.parser.Parse(content)
	if res.Failed() {
		log.WithField("reason", res.Error).Warn("llm output could not be parsed")
	}
	return res, nil
}

func (c *GatewayClient) DiscussionQuestions(ctx context.Context, commentsText string, subject types.Subject) (types.QuestionsResult, error) {
	log := c.log.WithFields(logrus.Fields{"subject": subject.Label, "task": "questions"})
	content, err := c.complete(ctx, BuildQuestionsPrompt(commentsText, subject), log)
	if err != nil {
		return types.QuestionsResult{}, err
	}
	res := ParseQuestions(content)
	if res.Failed() {
		log.WithField("reason", res.Error).Warn("llm output could not be parsed")
	}
	return res, nil
}

func (c *GatewayClient) Sentiment(ctx context.Context, commentsText string, subject types.Subject) (types.SentimentResult, error) {
	log := c.log.WithFields(logrus.Fields{"subject": subject.Label, "task": "sentiment"})
	content, err := c.complete(ctx, BuildSentimentPrompt(commentsText, subject), log)
	if err != nil {
		return types.SentimentResult{}, err
	}
	res := ParseSentiment(content)
	if res.Failed() {
		log.WithField("reason", res.Error).Warn("llm output could not be parsed")
	}
	return res, nil
}

// complete sends one prompt and returns the assistant text, retrying
// retryable statuses within the configured budget.
func (c *GatewayClient) complete(ctx context.Context, prompt string, log *logrus.Entry) (string, error) {
	data, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.0,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode llm request: %w", err)
	}
	log.WithField("payload_len", len(data)).Debug("llm request")

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			serr := &types.StatusError{URL: c.url, StatusCode: resp.StatusCode, Body: truncate(string(b), 300)}
			if !serr.Retryable() {
				// Permanent: don't retry on client errors
				return backoff.Permanent(serr)
			}
			log.WithField("http_status", resp.StatusCode).Warn("llm server error")
			return serr
		}
		body = b
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxElapsed
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return "", fmt.Errorf("llm extract failed: %w", err)
	}

	log.WithField("response_len", len(body)).Debug("llm raw response")
	if content := messageContent(body); content != "" {
		return content, nil
	}
	// Fallback: parse the raw body
	return string(body), nil
}

// messageContent reads the assistant text from an OpenAI style
// choices[0].message.content or an Anthropic style content[0].text body.
func messageContent(body []byte) string {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if len(parsed.Choices) > 0 {
		return parsed.Choices[0].Message.Content
	}
	for _, block := range parsed.Content {
		if block.Text != "" {
			return block.Text
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
