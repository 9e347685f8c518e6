// Package notify is the user-facing notification channel for the annotation
// flow: blocking-style alerts surfaced by the hosting UI.
package notify

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lsnmst/idjwi-alert-system/internal/logging"
)

// Level indicates how prominently a message should be surfaced.
type Level string

const (
	// LevelInfo is for confirmations and status messages
	LevelInfo Level = "info"
	// LevelWarning is for recoverable problems needing user action
	LevelWarning Level = "warning"
	// LevelError is for failed operations
	LevelError Level = "error"
)

// Message is a single user-facing notification.
type Message struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a unique ID and timestamp.
func NewMessage(level Level, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Level:     level,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// Notifier delivers messages to the user. Implementations block until the
// user has seen the message, mirroring alert() semantics in the hosting UI.
type Notifier interface {
	Notify(Message)
}

// Info sends an informational message.
func Info(n Notifier, text string) {
	if n == nil {
		return
	}
	n.Notify(NewMessage(LevelInfo, text))
}

// Warn sends a warning message.
func Warn(n Notifier, text string) {
	if n == nil {
		return
	}
	n.Notify(NewMessage(LevelWarning, text))
}

// Error sends an error message.
func Error(n Notifier, text string) {
	if n == nil {
		return
	}
	n.Notify(NewMessage(LevelError, text))
}

// LogNotifier writes notifications to a structured logger. Used when no
// interactive UI is attached.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier builds a LogNotifier on the given logger, defaulting to the
// global structured logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Structured()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (ln *LogNotifier) Notify(m Message) {
	if ln.logger == nil {
		return
	}
	switch m.Level {
	case LevelError:
		ln.logger.Error("user notification", "id", m.ID, "text", m.Text)
	case LevelWarning:
		ln.logger.Warn("user notification", "id", m.ID, "text", m.Text)
	default:
		ln.logger.Info("user notification", "id", m.ID, "text", m.Text)
	}
}
