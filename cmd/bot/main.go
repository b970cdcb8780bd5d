package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"flowchat/internal/chat"
	"flowchat/internal/config"
	"flowchat/internal/feedback"
	"flowchat/internal/llm"
	"flowchat/internal/prompt"
	"flowchat/internal/retrieval"
	"flowchat/internal/scheduler"
	"flowchat/internal/storage"
	"flowchat/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	if cfg.TelegramBotToken == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	factory := &llm.Factory{
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
	}
	client, err := factory.CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	var retriever retrieval.Retriever
	if cfg.WeaviateURL != "" {
		r, err := retrieval.NewWeaviate(cfg.WeaviateURL, cfg.WeaviateClass)
		if err != nil {
			log.Printf("failed to init retriever, continuing without augmentation: %v", err)
		} else {
			retriever = r
		}
	}

	var relay feedback.Relay
	var dispatcher *feedback.Dispatcher
	if cfg.FeedbackURL != "" {
		relay = feedback.NewHTTPRelay(cfg.FeedbackURL)
		dispatcher = feedback.NewDispatcher(relay, cfg.FeedbackQueueSize)
		defer dispatcher.Close()
	}

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Printf("failed to init file recorder: %v", err)
		} else {
			rec = fr
		}
	}

	systemPrompt := readSystemPrompt(cfg.SystemPromptPath)
	assembler := prompt.NewAssembler(retriever, cfg.RetrievalTopK)

	newSession := func(name string) *chat.Session {
		return chat.NewSession(chat.Config{
			Name:         name,
			Client:       client,
			Assembler:    assembler,
			SystemPrompt: systemPrompt,
			Window:       cfg.HistoryWindow,
			UseRetrieval: retriever != nil,
			Dispatcher:   dispatcher,
			Recorder:     rec,
		})
	}

	bot, err := telegram.New(cfg.TelegramBotToken, cfg.AllowedUsers, newSession, relay, rec)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	if relay != nil {
		sched := scheduler.New()
		sched.SetTrainFunction(relay.Train)
		if err := sched.Start(); err != nil {
			log.Printf("failed to start scheduler: %v", err)
		} else {
			defer sched.Stop()
		}
	}

	bot.Start(ctx)
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}
