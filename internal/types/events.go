package types

type EventType string

const (
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Stage is a step of an analysis request.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageSearching   Stage = "searching"
	StageScraping    Stage = "scraping"
	StageSelecting   Stage = "selecting"
	StageBatching    Stage = "batching"
	StageDispatching Stage = "analyzing"
	StageMerging     Stage = "merging"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Event is one notification streamed to the caller while a request runs.
type Event struct {
	Type    EventType `json:"type"`
	Stage   Stage     `json:"step,omitempty"`
	Current int       `json:"current,omitempty"`
	Total   int       `json:"total,omitempty"`
	Message string    `json:"message,omitempty"`
	Section string    `json:"section,omitempty"`
	Data    any       `json:"data,omitempty"`
}

func Progress(stage Stage, current, total int, msg string) Event {
	return Event{Type: EventProgress, Stage: stage, Current: current, Total: total, Message: msg}
}

func Result(section string, data any) Event {
	return Event{Type: EventResult, Section: section, Data: data}
}

func Complete(msg string) Event {
	return Event{Type: EventComplete, Message: msg}
}

func Failure(msg string) Event {
	return Event{Type: EventError, Message: msg}
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

const (
	SectionMeta       = "meta"
	SectionArticles   = "articles"
	SectionCommercial = "commercialOpportunities"
	SectionQuestions  = "discussionQuestions"
	SectionSentiment  = "sentiment"
)
