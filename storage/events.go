package storage

import (
	"log"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SessionEvent is one line in the session event log.
type SessionEvent struct {
	Time    string `json:"time"`
	Session string `json:"session,omitempty"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

// EventLogger writes session events (authentication results, character
// creation, rejected duplicate logins) as JSON lines to a rotated file.
type EventLogger struct {
	mu  sync.Mutex
	out *lumberjack.Logger
	enc *json.Encoder
}

func NewEventLogger(path string) *EventLogger {
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
	}
	return &EventLogger{
		out: out,
		enc: json.NewEncoder(out),
	}
}

// Log appends one event. Failures are reported to the process log and
// otherwise ignored; the conversation never waits on, or fails with, the
// event log.
func (l *EventLogger) Log(sessionID, source, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(SessionEvent{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Session: sessionID,
		Source:  source,
		Message: message,
	}); err != nil {
		log.Printf("session event log write failed: %v", err)
	}
}

func (l *EventLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
