// Package extractor talks to the text-generation service: it builds the
// commercial-opportunities prompt, calls the configured backend and parses
// whatever comes back into an AnalysisResult.
package extractor

import (
	"context"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/types"
)

// Analyzer analyzes one formatted block of comments. Unparseable output is
// an error-tagged result, not an error; errors are reserved for calls that
// did not produce any output (transport, status, timeout).
type Analyzer interface {
	Analyze(ctx context.Context, commentsText string, subject types.Subject) (types.AnalysisResult, error)
}

// New builds the analyzer selected by cfg. It is meant to be called once per
// process and shared across requests; all implementations are safe for
// concurrent use.
func New(cfg *config.Config, log *logrus.Entry) (Analyzer, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	switch cfg.Provider() {
	case config.ProviderMock:
		log.Info("mock LLM mode ON - returning deterministic analysis")
		return NewMockClient(), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.LLM, log), nil
	default:
		return NewGatewayClient(cfg.LLM, log), nil
	}
}
