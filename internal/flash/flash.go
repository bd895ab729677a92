// Package flash queues one-shot notifications per browser session.
package flash

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ignite/internal/metrics"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is a notification shown once and then discarded.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func Success(text string) Message { return Message{Level: LevelSuccess, Text: text} }
func Failure(text string) Message { return Message{Level: LevelError, Text: text} }

// ErrNoSession is returned when a message is pushed without a session key.
var ErrNoSession = errors.New("flash: empty session")

// Notifier is the abstraction over notification backends.
type Notifier interface {
	Push(ctx context.Context, session string, msg Message) error
	Drain(ctx context.Context, session string) ([]Message, error)
}

// InMemory keeps messages in process, bounded per session. Sessions that
// have not been touched for ttl are dropped on the next Push.
type InMemory struct {
	size int
	ttl  time.Duration

	mu    sync.Mutex
	boxes map[string]*mailbox
}

type mailbox struct {
	msgs    []Message
	touched time.Time
}

// NewInMemory creates a notifier holding at most size messages per session.
func NewInMemory(size int, ttl time.Duration) *InMemory {
	if size <= 0 {
		size = 16
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &InMemory{size: size, ttl: ttl, boxes: make(map[string]*mailbox)}
}

// Push appends msg, dropping the oldest message when the session is full.
func (n *InMemory) Push(ctx context.Context, session string, msg Message) error {
	if session == "" {
		return ErrNoSession
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	n.mu.Lock()
	defer n.mu.Unlock()

	for k, b := range n.boxes {
		if now.Sub(b.touched) > n.ttl {
			delete(n.boxes, k)
		}
	}

	b, ok := n.boxes[session]
	if !ok {
		b = &mailbox{}
		n.boxes[session] = b
	}
	b.msgs = append(b.msgs, msg)
	if over := len(b.msgs) - n.size; over > 0 {
		b.msgs = b.msgs[over:]
	}
	b.touched = now
	count(msg)
	return nil
}

// Drain returns and removes every queued message for session.
func (n *InMemory) Drain(ctx context.Context, session string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	b, ok := n.boxes[session]
	if !ok {
		return nil, nil
	}
	delete(n.boxes, session)
	return b.msgs, nil
}

func count(msg Message) {
	metrics.Notifications.WithLabelValues(string(msg.Level)).Inc()
}

// serialize stores messages as Level|Text.
func serialize(msg Message) string {
	return string(msg.Level) + "|" + msg.Text
}

func deserialize(s string) Message {
	level, text, ok := strings.Cut(s, "|")
	if !ok {
		return Message{Level: LevelError, Text: s}
	}
	return Message{Level: Level(level), Text: text}
}
