package telegram

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"flowchat/internal/analytics"
	"flowchat/internal/chat"
	"flowchat/internal/feedback"
	"flowchat/internal/storage"
)

// SessionFactory builds a fresh conversation session for a chat. The name
// labels the chat's events in the interaction log.
type SessionFactory func(name string) *chat.Session

type Bot struct {
	api        *tgbotapi.BotAPI
	newSession SessionFactory
	allowed    map[int64]bool
	relay      feedback.Relay
	recorder   storage.Recorder
	limiter    *rate.Limiter

	mu       sync.Mutex
	sessions map[int64]*chatState
}

// chatState serializes turns per chat: history append and window read
// happen inside one turn with read-after-write expectations.
type chatState struct {
	mu      sync.Mutex
	session *chat.Session
}

func New(botToken string, allowedUsers []int64, newSession SessionFactory, relay feedback.Relay, recorder storage.Recorder) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}

	allowed := make(map[int64]bool, len(allowedUsers))
	for _, id := range allowedUsers {
		allowed[id] = true
	}

	return &Bot{
		api:        api,
		newSession: newSession,
		allowed:    allowed,
		relay:      relay,
		recorder:   recorder,
		limiter:    rate.NewLimiter(rate.Every(1*time.Second), 1),
		sessions:   make(map[int64]*chatState),
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if len(b.allowed) > 0 && !b.allowed[msg.From.ID] {
		log.Printf("unauthorized access attempt by user ID: %d, username: @%s", msg.From.ID, msg.From.UserName)
		return
	}

	state := b.state(msg.Chat.ID)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, state)
		return
	}
	if msg.Text == "" {
		return
	}

	log.Printf("incoming message from %d (@%s): %q", msg.From.ID, msg.From.UserName, msg.Text)

	state.mu.Lock()
	answer := state.session.Ask(ctx, msg.Text)
	state.mu.Unlock()

	b.sendMessage(ctx, msg.Chat.ID, answer)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, state *chatState) {
	switch msg.Command() {
	case "clear":
		state.mu.Lock()
		state.session.Clear()
		state.mu.Unlock()
		b.sendMessage(ctx, msg.Chat.ID, "Conversation cleared.")
	case "save":
		state.mu.Lock()
		path, err := state.session.Save("")
		state.mu.Unlock()
		if err != nil {
			log.Printf("failed to save transcript: %v", err)
			b.sendMessage(ctx, msg.Chat.ID, "Could not save the conversation.")
			return
		}
		b.sendMessage(ctx, msg.Chat.ID, "Conversation saved to "+path)
	case "stats":
		b.sendMessage(ctx, msg.Chat.ID, b.statsReport(ctx))
	default:
		b.sendMessage(ctx, msg.Chat.ID, "Unknown command.")
	}
}

func (b *Bot) statsReport(ctx context.Context) string {
	report := ""
	if b.recorder != nil {
		events, err := b.recorder.LoadInteractions()
		if err != nil {
			log.Printf("failed to load interactions: %v", err)
		} else {
			report = analytics.Format(analytics.Summarize(events, time.Now().UTC()))
		}
	}
	if b.relay != nil {
		stats, err := b.relay.Stats(ctx)
		if err != nil {
			log.Printf("failed to fetch feedback stats: %v", err)
		} else {
			report += fmt.Sprintf("\nfeedback: %d interactions, %d training runs, avg reward %.2f",
				stats.TotalInteractions, stats.TrainingRuns, stats.AverageReward)
		}
	}
	if report == "" {
		report = "No statistics available."
	}
	return report
}

// state returns the per-chat state, creating the session on first contact.
func (b *Bot) state(chatID int64) *chatState {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.sessions[chatID]
	if !ok {
		st = &chatState{session: b.newSession(fmt.Sprintf("tg:%d", chatID))}
		b.sessions[chatID] = st
	}
	return st
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
