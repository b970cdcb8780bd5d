package storage

import "time"

// Event records one completed exchange. Events are appended in
// chronological order.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	Session           string    `json:"session"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Sources           []string  `json:"sources,omitempty"`
}

// Recorder abstracts persistence of interaction events. Implementations
// must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
