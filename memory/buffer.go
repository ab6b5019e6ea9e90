package memory

import (
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Buffer is a bounded chat history buffer. The planner appends the user
// request and the final answer of each run; callers can seed it with prior
// history or share one buffer across planners for a continuing conversation.
type Buffer struct {
	mu          sync.Mutex
	messages    []llms.MessageContent
	maxMessages int
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithMaxMessages caps the number of retained messages. When the cap is
// exceeded the oldest messages are dropped. Zero means unbounded.
func WithMaxMessages(n int) Option {
	return func(b *Buffer) {
		b.maxMessages = n
	}
}

// NewBuffer creates an empty chat buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add appends a message to the history.
func (b *Buffer) Add(msg llms.MessageContent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	b.trim()
}

// AddUser appends a human message with the given text.
func (b *Buffer) AddUser(text string) {
	b.Add(llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	})
}

// AddAI appends an assistant message with the given text.
func (b *Buffer) AddAI(text string) {
	b.Add(llms.MessageContent{
		Role:  llms.ChatMessageTypeAI,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	})
}

// Set replaces the entire history.
func (b *Buffer) Set(messages []llms.MessageContent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = make([]llms.MessageContent, len(messages))
	copy(b.messages, messages)
	b.trim()
}

// Messages returns a copy of the history.
func (b *Buffer) Messages() []llms.MessageContent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]llms.MessageContent, len(b.messages))
	copy(out, b.messages)
	return out
}

// Len returns the number of retained messages.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// Reset clears the history.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

func (b *Buffer) trim() {
	if b.maxMessages > 0 && len(b.messages) > b.maxMessages {
		b.messages = b.messages[len(b.messages)-b.maxMessages:]
	}
}
