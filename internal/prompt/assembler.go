package prompt

import (
	"context"
	"fmt"
	"log"
	"strings"

	"flowchat/internal/retrieval"
)

const DefaultTopK = 3

// Exact-match greeting set. Longer messages that merely start with one of
// these words still go through retrieval.
var greetings = map[string]bool{
	"hi":     true,
	"hey":    true,
	"hello":  true,
	"hola":   true,
	"yo":     true,
	"sup":    true,
	"wassup": true,
}

const augmentedTemplate = `Use this information to answer:

%s

Question: %s

Answer naturally without mentioning the context.`

// PreparedTurn is the assembled input for one completion call.
type PreparedTurn struct {
	Prompt  string
	Context string
	Sources []string
}

// Assembler decides per message whether retrieval applies and builds the
// prompt sent to the model.
type Assembler struct {
	retriever retrieval.Retriever
	topK      int
}

// NewAssembler creates an assembler. A nil retriever disables augmentation
// entirely; topK values below one fall back to DefaultTopK.
func NewAssembler(retriever retrieval.Retriever, topK int) *Assembler {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Assembler{retriever: retriever, topK: topK}
}

// IsGreeting reports whether the trimmed, case-folded message is in the
// fixed greeting set.
func IsGreeting(message string) bool {
	return greetings[strings.ToLower(strings.TrimSpace(message))]
}

// BuildTurn assembles the prompt for one user message. Greetings and
// useRetrieval=false skip the retriever; retrieval failures and empty
// results degrade to the raw message. The prompt is never empty when the
// message is non-empty.
func (a *Assembler) BuildTurn(ctx context.Context, userMessage string, useRetrieval bool) PreparedTurn {
	turn := PreparedTurn{Prompt: userMessage}

	if !useRetrieval || a.retriever == nil || IsGreeting(userMessage) {
		return turn
	}

	passages, err := a.retriever.Query(ctx, userMessage, a.topK)
	if err != nil {
		log.Printf("retrieval failed, continuing without context: %v", err)
		return turn
	}

	block, sources := FormatContext(passages)
	if block == "" {
		return turn
	}

	turn.Prompt = fmt.Sprintf(augmentedTemplate, block, userMessage)
	turn.Context = block
	turn.Sources = sources
	return turn
}
