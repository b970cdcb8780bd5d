package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// LLM settings. OPENAI_BASE_URL points the OpenAI-compatible client at
	// Groq, OpenRouter, or any other hosted endpoint.
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"llama-3.3-70b-versatile"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Retrieval. Empty WEAVIATE_URL disables augmentation.
	WeaviateURL   string `env:"WEAVIATE_URL"`
	WeaviateClass string `env:"WEAVIATE_CLASS" envDefault:"KnowledgeChunk"`
	RetrievalTopK int    `env:"RETRIEVAL_TOP_K" envDefault:"3"`

	// Feedback relay. Empty FEEDBACK_URL disables it.
	FeedbackURL       string `env:"FEEDBACK_URL"`
	FeedbackQueueSize int    `env:"FEEDBACK_QUEUE_SIZE" envDefault:"64"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`

	// Conversation
	HistoryWindow int    `env:"HISTORY_WINDOW" envDefault:"10"`
	TranscriptDir string `env:"TRANSCRIPT_DIR" envDefault:"transcripts"`

	// Storage
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"logs/interactions.jsonl"`

	// Telegram (bot binary only)
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
