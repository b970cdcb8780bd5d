package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"flowchat/internal/feedback"
	"flowchat/internal/llm"
	"flowchat/internal/prompt"
	"flowchat/internal/retrieval"
)

type fakeClient struct {
	response  string
	fragments []string
	err       error
	gotMsgs   []llm.Message
}

func (f *fakeClient) Generate(_ context.Context, messages []llm.Message) (llm.Response, error) {
	f.gotMsgs = messages
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.response}, nil
}

func (f *fakeClient) GenerateStream(_ context.Context, messages []llm.Message, fn llm.StreamFunc) error {
	f.gotMsgs = messages
	for _, frag := range f.fragments {
		if err := fn(frag); err != nil {
			return err
		}
	}
	return f.err
}

// syncClient implements only llm.Client, like the YandexGPT provider.
type syncClient struct {
	response string
	err      error
}

func (s *syncClient) Generate(context.Context, []llm.Message) (llm.Response, error) {
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Content: s.response}, nil
}

type captureRelay struct {
	recorded []feedback.Interaction
}

func (c *captureRelay) Record(_ context.Context, i feedback.Interaction) error {
	c.recorded = append(c.recorded, i)
	return nil
}

func (c *captureRelay) Stats(context.Context) (feedback.Stats, error) { return feedback.Stats{}, nil }

func (c *captureRelay) Suggestions(context.Context) ([]string, error) { return nil, nil }

func (c *captureRelay) Train(context.Context) error { return nil }

type fixedRetriever struct {
	passages []retrieval.Passage
}

func (f *fixedRetriever) Query(context.Context, string, int) ([]retrieval.Passage, error) {
	return f.passages, nil
}

func newTestSession(client llm.Client, relay *captureRelay, r retrieval.Retriever) (*Session, *feedback.Dispatcher) {
	var d *feedback.Dispatcher
	if relay != nil {
		d = feedback.NewDispatcher(relay, 8)
	}
	s := NewSession(Config{
		Name:         "test",
		Client:       client,
		Assembler:    prompt.NewAssembler(r, 3),
		SystemPrompt: "system prompt",
		UseRetrieval: r != nil,
		Dispatcher:   d,
	})
	return s, d
}

func TestAskAppendsHistoryAndAnswers(t *testing.T) {
	client := &fakeClient{response: "we build chat systems"}
	s, _ := newTestSession(client, nil, nil)

	answer := s.Ask(context.Background(), "what do you do?")
	if answer != "we build chat systems" {
		t.Fatalf("unexpected answer: %q", answer)
	}

	msgs := s.History().All()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("unexpected roles: %+v", msgs)
	}
	if client.gotMsgs[0].Role != "system" || client.gotMsgs[0].Content != "system prompt" {
		t.Fatalf("system prompt missing from model input: %+v", client.gotMsgs[0])
	}
}

func TestAskGatewayFailureReturnsApology(t *testing.T) {
	client := &fakeClient{err: errors.New("api down")}
	s, _ := newTestSession(client, nil, nil)

	answer := s.Ask(context.Background(), "anything")
	if answer != Apology {
		t.Fatalf("expected apology, got %q", answer)
	}

	msgs := s.History().All()
	if len(msgs) != 2 || msgs[1].Role != "assistant" || msgs[1].Content != Apology {
		t.Fatalf("apology not recorded in history: %+v", msgs)
	}
}

func TestAskWindowCap(t *testing.T) {
	client := &fakeClient{response: "ok"}
	s, _ := newTestSession(client, nil, nil)

	// 7 turns append 14 messages; the 15th (current user turn) pushes the
	// window, so the model sees system + last 10.
	for i := 0; i < 7; i++ {
		s.Ask(context.Background(), "turn")
	}
	s.Ask(context.Background(), "current")

	if len(client.gotMsgs) != 11 {
		t.Fatalf("expected system + 10 messages, got %d", len(client.gotMsgs))
	}
	if client.gotMsgs[0].Role != "system" {
		t.Fatalf("first message must be the system prompt")
	}
	last := client.gotMsgs[len(client.gotMsgs)-1]
	if last.Role != "user" || last.Content != "current" {
		t.Fatalf("current turn missing from window: %+v", last)
	}
	if s.History().Len() != 16 {
		t.Fatalf("full history must be retained, got %d", s.History().Len())
	}
}

func TestAskRelaysOriginalQuestion(t *testing.T) {
	client := &fakeClient{response: "from $99/month"}
	relay := &captureRelay{}
	r := &fixedRetriever{passages: []retrieval.Passage{{Document: "starter is $99/month", Source: "pricing.md"}}}
	s, d := newTestSession(client, relay, r)

	question := "how much is the starter plan?"
	s.Ask(context.Background(), question)
	d.Close()

	if len(relay.recorded) != 1 {
		t.Fatalf("expected 1 relayed interaction, got %d", len(relay.recorded))
	}
	got := relay.recorded[0]
	if got.Question != question {
		t.Fatalf("relay must get the original question, got %q", got.Question)
	}
	if got.Response != "from $99/month" {
		t.Fatalf("unexpected relayed response: %q", got.Response)
	}
	if !strings.Contains(got.Context, "starter is $99/month") {
		t.Fatalf("relayed context missing passage: %q", got.Context)
	}

	// The stored user turn is the augmented prompt, not the raw question.
	if s.History().All()[0].Content == question {
		t.Fatalf("expected augmented prompt in history")
	}
}

func TestStreamConcatenationMatchesHistory(t *testing.T) {
	client := &fakeClient{fragments: []string{"we ", "build ", "chat ", "systems"}}
	s, _ := newTestSession(client, nil, nil)

	var got []string
	err := s.Stream(context.Background(), "what do you do?", func(frag string) error {
		got = append(got, frag)
		return nil
	})
	if err != nil {
		t.Fatalf("stream returned error: %v", err)
	}

	joined := strings.Join(got, "")
	if joined != "we build chat systems" {
		t.Fatalf("unexpected fragments: %q", joined)
	}
	msgs := s.History().All()
	if msgs[len(msgs)-1].Content != joined {
		t.Fatalf("history entry %q != streamed %q", msgs[len(msgs)-1].Content, joined)
	}
}

func TestStreamGatewayFailureEmitsApologyFragment(t *testing.T) {
	client := &fakeClient{fragments: []string{"partial "}, err: errors.New("stream broke")}
	s, _ := newTestSession(client, nil, nil)

	var got []string
	err := s.Stream(context.Background(), "anything", func(frag string) error {
		got = append(got, frag)
		return nil
	})
	if err != nil {
		t.Fatalf("gateway failure must be swallowed, got %v", err)
	}

	if got[len(got)-1] != StreamApology {
		t.Fatalf("expected apology fragment, got %q", got[len(got)-1])
	}
	msgs := s.History().All()
	if msgs[len(msgs)-1].Content != StreamApology {
		t.Fatalf("apology must replace the response in history, got %q", msgs[len(msgs)-1].Content)
	}
}

func TestStreamAbandonedFlushesPartial(t *testing.T) {
	client := &fakeClient{fragments: []string{"one ", "two ", "three"}}
	relay := &captureRelay{}
	s, d := newTestSession(client, relay, nil)

	stop := errors.New("caller gone")
	n := 0
	err := s.Stream(context.Background(), "count", func(string) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected caller error back, got %v", err)
	}
	d.Close()

	msgs := s.History().All()
	if msgs[len(msgs)-1].Content != "one two " {
		t.Fatalf("partial accumulation lost: %q", msgs[len(msgs)-1].Content)
	}
	if len(relay.recorded) != 1 || relay.recorded[0].Response != "one two " {
		t.Fatalf("partial accumulation not relayed: %+v", relay.recorded)
	}
}

func TestStreamFallsBackForSyncOnlyClient(t *testing.T) {
	s, _ := newTestSession(&syncClient{response: "full answer"}, nil, nil)

	var got []string
	err := s.Stream(context.Background(), "question", func(frag string) error {
		got = append(got, frag)
		return nil
	})
	if err != nil {
		t.Fatalf("stream returned error: %v", err)
	}
	if len(got) != 1 || got[0] != "full answer" {
		t.Fatalf("expected one fragment with the full response, got %v", got)
	}
}

func TestStreamFailureRelaysApology(t *testing.T) {
	client := &fakeClient{err: errors.New("down")}
	relay := &captureRelay{}
	s, d := newTestSession(client, relay, nil)

	_ = s.Stream(context.Background(), "q", func(string) error { return nil })
	d.Close()

	if len(relay.recorded) != 1 || relay.recorded[0].Response != StreamApology {
		t.Fatalf("apology not relayed as the response: %+v", relay.recorded)
	}
}
