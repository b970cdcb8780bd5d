package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"flowchat/internal/analytics"
	"flowchat/internal/chat"
	"flowchat/internal/config"
	"flowchat/internal/feedback"
	"flowchat/internal/llm"
	"flowchat/internal/prompt"
	"flowchat/internal/retrieval"
	"flowchat/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

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

	session := chat.NewSession(chat.Config{
		Name:         "cli",
		Client:       client,
		Assembler:    prompt.NewAssembler(retriever, cfg.RetrievalTopK),
		SystemPrompt: readSystemPrompt(cfg.SystemPromptPath),
		Window:       cfg.HistoryWindow,
		UseRetrieval: retriever != nil,
		Dispatcher:   dispatcher,
		Recorder:     rec,
	})

	runLoop(ctx, session, relay, rec, cfg.TranscriptDir)
}

func runLoop(ctx context.Context, session *chat.Session, relay feedback.Relay, rec storage.Recorder, transcriptDir string) {
	fmt.Println("Commands: stats, improve, clear, save, quit")
	fmt.Println()

	// Stdin is read from its own goroutine so Ctrl-C interrupts the prompt
	// immediately instead of after the next line.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("You: ")

		var input string
		select {
		case <-ctx.Done():
			fmt.Println("\nGoodbye!")
			return
		case line, ok := <-lines:
			if !ok {
				fmt.Println("\nGoodbye!")
				return
			}
			input = strings.TrimSpace(line)
		}
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit":
			fmt.Println("Goodbye!")
			return
		case "stats":
			printStats(ctx, relay, rec)
		case "improve":
			printSuggestions(ctx, relay)
		case "clear":
			session.Clear()
			fmt.Println("Conversation cleared.")
			fmt.Println()
		case "save":
			path, err := session.Save(transcriptPath(transcriptDir))
			if err != nil {
				log.Printf("failed to save transcript: %v", err)
				continue
			}
			fmt.Printf("Conversation saved to %s\n\n", path)
		default:
			fmt.Print("\nAssistant: ")
			err := session.Stream(ctx, input, func(fragment string) error {
				fmt.Print(fragment)
				return nil
			})
			if err != nil {
				log.Printf("stream interrupted: %v", err)
			}
			fmt.Print("\n\n")
		}
	}
}

func printStats(ctx context.Context, relay feedback.Relay, rec storage.Recorder) {
	printed := false
	if rec != nil {
		events, err := rec.LoadInteractions()
		if err != nil {
			log.Printf("failed to load interactions: %v", err)
		} else {
			fmt.Println(analytics.Format(analytics.Summarize(events, time.Now().UTC())))
			printed = true
		}
	}
	if relay != nil {
		stats, err := relay.Stats(ctx)
		if err != nil {
			log.Printf("failed to fetch feedback stats: %v", err)
		} else {
			fmt.Printf("feedback: %d interactions, %d training runs, avg reward %.2f\n",
				stats.TotalInteractions, stats.TrainingRuns, stats.AverageReward)
			printed = true
		}
	}
	if !printed {
		fmt.Println("No statistics available.")
	}
	fmt.Println()
}

func printSuggestions(ctx context.Context, relay feedback.Relay) {
	if relay == nil {
		fmt.Println("Feedback relay is not configured.")
		fmt.Println()
		return
	}
	suggestions, err := relay.Suggestions(ctx)
	if err != nil {
		log.Printf("failed to fetch suggestions: %v", err)
		return
	}
	if len(suggestions) == 0 {
		fmt.Println("No suggestions yet.")
	}
	for _, s := range suggestions {
		fmt.Println("- " + s)
	}
	fmt.Println()
}

func transcriptPath(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, fmt.Sprintf("conversation_%s.txt", time.Now().Format("20060102_150405")))
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
