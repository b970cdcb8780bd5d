package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Fixed sampling parameters used for every completion call.
const (
	Temperature = 0.7
	MaxTokens   = 2048
	TopP        = 0.9
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// StreamFunc receives one generated fragment. Returning an error stops the
// stream; the next fragment is not requested until the call returns.
type StreamFunc func(fragment string) error

// StreamingClient is implemented by providers that can deliver the response
// incrementally. Callers fall back to Generate when a client does not
// implement it.
type StreamingClient interface {
	Client
	GenerateStream(ctx context.Context, messages []Message, fn StreamFunc) error
}
