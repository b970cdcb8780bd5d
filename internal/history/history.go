package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"flowchat/internal/llm"
)

// Log is an append-only conversation transcript. The full history is kept
// for persistence; truncation to a model window happens only in Recent.
// Append and Clear are the only mutators.
type Log struct {
	mu       sync.RWMutex
	messages []llm.Message
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(role, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, llm.Message{Role: role, Content: content})
}

// Recent returns the last n messages in chronological order, fewer if the
// history is shorter. The returned slice is a copy.
func (l *Log) Recent(n int) []llm.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	start := len(l.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]llm.Message, len(l.messages)-start)
	copy(out, l.messages[start:])
	return out
}

func (l *Log) All() []llm.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]llm.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}

// Save writes the full transcript as a plain text file, one block per
// message: "<ROLE>:\n<content>\n\n". When path is empty a timestamp-derived
// filename is used. Returns the path written.
func (l *Log) Save(path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("conversation_%s.txt", time.Now().Format("20060102_150405"))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to ensure transcript dir: %w", err)
		}
	}

	var b strings.Builder
	for _, msg := range l.All() {
		b.WriteString(strings.ToUpper(msg.Role))
		b.WriteString(":\n")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}
