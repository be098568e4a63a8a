package types

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a missing credential or dependency. Flows that
	// see it never start the pipeline.
	ErrConfiguration = errors.New("configuration error")
	// ErrNoArticles is returned when a search or section page yields nothing
	// to scrape.
	ErrNoArticles = errors.New("no articles found")
)

// ConfigurationError names the missing setting.
type ConfigurationError struct {
	Setting string
	Hint    string
}

func (e *ConfigurationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s not set: %s", e.Setting, e.Hint)
	}
	return fmt.Sprintf("%s not set", e.Setting)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// SourceFetchError wraps a failure of the comment fetch collaborator.
type SourceFetchError struct {
	Source string
	Key    string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Source, e.Key, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP answer from an external service.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// ParseError is returned by the analyzer output parsers when no stage
// produced a recognizable report.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
