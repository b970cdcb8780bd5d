// Package feedback relays completed exchanges to the external
// feedback-learning subsystem. Delivery is best-effort: failures are logged
// and never reach the caller of a chat turn.
package feedback

import (
	"context"
	"time"
)

// Interaction is one completed exchange forwarded for quality learning.
// Question carries the original user message, not the augmented prompt.
type Interaction struct {
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	Context   string    `json:"context,omitempty"`
}

// Stats summarizes the learning subsystem's training state.
type Stats struct {
	TotalInteractions int     `json:"total_interactions"`
	TrainingRuns      int     `json:"training_runs"`
	AverageReward     float64 `json:"average_reward"`
	LastTrainedAt     string  `json:"last_trained_at,omitempty"`
}

// Relay is the client surface of the feedback subsystem. No return value
// besides the error is ever consulted on Record.
type Relay interface {
	Record(ctx context.Context, interaction Interaction) error
	Stats(ctx context.Context) (Stats, error)
	Suggestions(ctx context.Context) ([]string, error)
	Train(ctx context.Context) error
}
