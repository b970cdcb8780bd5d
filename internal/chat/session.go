// Package chat executes conversation turns: prompt assembly, the bounded
// history window, the completion call, and the best-effort side effects
// (feedback relay, interaction log). Callers serialize turns; one turn may
// be in flight per session at a time.
package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"flowchat/internal/feedback"
	"flowchat/internal/history"
	"flowchat/internal/llm"
	"flowchat/internal/prompt"
	"flowchat/internal/storage"
)

// Fixed fallback responses. A gateway failure never propagates past the
// turn boundary; the user sees one of these instead.
const (
	Apology       = "I apologize, but I encountered an error. Please try again."
	StreamApology = "I apologize, but I encountered an error."
)

const DefaultWindow = 10

// DefaultSystemPrompt is used when no prompt file is configured.
const DefaultSystemPrompt = `You are a friendly assistant. Keep answers short and natural - no jargon, no corporate speak. If you don't know, just say so.`

type Config struct {
	// Name labels the session's events in the interaction log.
	Name      string
	Client    llm.Client
	Assembler *prompt.Assembler
	// SystemPrompt falls back to DefaultSystemPrompt when empty.
	SystemPrompt string
	// Window is how many history messages go to the model, default 10.
	Window int
	// UseRetrieval is passed through to the assembler on every turn.
	UseRetrieval bool
	Dispatcher   *feedback.Dispatcher
	Recorder     storage.Recorder
}

// Session owns one conversation: its full history plus the collaborators
// needed to run a turn.
type Session struct {
	name         string
	client       llm.Client
	assembler    *prompt.Assembler
	log          *history.Log
	systemPrompt string
	window       int
	useRetrieval bool
	dispatcher   *feedback.Dispatcher
	recorder     storage.Recorder
}

func NewSession(cfg Config) *Session {
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Session{
		name:         cfg.Name,
		client:       cfg.Client,
		assembler:    cfg.Assembler,
		log:          history.NewLog(),
		systemPrompt: systemPrompt,
		window:       window,
		useRetrieval: cfg.UseRetrieval,
		dispatcher:   cfg.Dispatcher,
		recorder:     cfg.Recorder,
	}
}

// Ask runs one synchronous turn and returns the assistant's response. On
// gateway failure the fixed apology is returned and recorded as the
// response; the error is logged, never raised.
func (s *Session) Ask(ctx context.Context, userMessage string) string {
	turn := s.assembler.BuildTurn(ctx, userMessage, s.useRetrieval)
	s.log.Append(llm.RoleUser, turn.Prompt)

	resp, err := s.client.Generate(ctx, s.windowMessages())
	answer := resp.Content
	if err != nil {
		log.Printf("completion failed: %v", err)
		answer = Apology
	}

	s.log.Append(llm.RoleAssistant, answer)
	s.finishTurn(userMessage, answer, turn)
	return answer
}

// Stream runs one streaming turn. Each fragment is accumulated and then
// forwarded to fn before the next one is requested. A mid-stream gateway
// failure replaces the response with a single fixed error fragment. If fn
// returns an error the stream stops, but whatever was accumulated is still
// flushed to history and relayed; that error is returned to the caller.
func (s *Session) Stream(ctx context.Context, userMessage string, fn llm.StreamFunc) error {
	turn := s.assembler.BuildTurn(ctx, userMessage, s.useRetrieval)
	s.log.Append(llm.RoleUser, turn.Prompt)
	messages := s.windowMessages()

	var buf strings.Builder
	var aborted error

	streamer, ok := s.client.(llm.StreamingClient)
	if ok {
		err := streamer.GenerateStream(ctx, messages, func(fragment string) error {
			buf.WriteString(fragment)
			if ferr := fn(fragment); ferr != nil {
				aborted = ferr
				return ferr
			}
			return nil
		})
		if err != nil && aborted == nil {
			log.Printf("completion stream failed: %v", err)
			_ = fn(StreamApology)
			buf.Reset()
			buf.WriteString(StreamApology)
		}
	} else {
		// Provider cannot stream: degrade to a single fragment carrying
		// the full response.
		resp, err := s.client.Generate(ctx, messages)
		if err != nil {
			log.Printf("completion failed: %v", err)
			_ = fn(StreamApology)
			buf.WriteString(StreamApology)
		} else {
			buf.WriteString(resp.Content)
			aborted = fn(resp.Content)
		}
	}

	answer := buf.String()
	s.log.Append(llm.RoleAssistant, answer)
	s.finishTurn(userMessage, answer, turn)
	return aborted
}

// windowMessages builds the model input: the system prompt plus the most
// recent window of history, taken after the current user turn was appended
// so it counts toward the cap.
func (s *Session) windowMessages() []llm.Message {
	messages := make([]llm.Message, 0, s.window+1)
	if s.systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	}
	return append(messages, s.log.Recent(s.window)...)
}

// finishTurn runs the best-effort side effects: the feedback relay gets the
// original user message (not the augmented prompt), and the exchange is
// appended to the interaction log.
func (s *Session) finishTurn(userMessage, answer string, turn prompt.PreparedTurn) {
	if s.dispatcher != nil {
		s.dispatcher.Enqueue(feedback.Interaction{
			Question: userMessage,
			Response: answer,
			Context:  turn.Context,
		})
	}
	if s.recorder != nil {
		err := s.recorder.AppendInteraction(storage.Event{
			Timestamp:         time.Now().UTC(),
			Session:           s.name,
			UserMessage:       userMessage,
			AssistantResponse: answer,
			Sources:           turn.Sources,
		})
		if err != nil {
			log.Printf("failed to record interaction: %v", err)
		}
	}
}

// Clear drops the full conversation history.
func (s *Session) Clear() {
	s.log.Clear()
}

// Save writes the transcript; path may be empty for a timestamped default.
func (s *Session) Save(path string) (string, error) {
	return s.log.Save(path)
}

// History exposes the conversation log for inspection.
func (s *Session) History() *history.Log {
	return s.log
}
