// Package logger appends engine events to a JSONL sink. Classified input
// is redacted and truncated before it is written.
package logger

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/qualitygate/qualitygate/internal/redact"
)

// Event kinds.
const (
	KindClassify        = "classify"
	KindPatternExcluded = "pattern_excluded"
	KindReload          = "reload"
	KindSamplesDropped  = "samples_dropped"
	KindWarning         = "warning"
)

// loggedInputLimit bounds how much of the classified input lands in a log
// line.
const loggedInputLimit = 512

// Event is one audit record.
type Event struct {
	Timestamp string   `json:"timestamp"`
	Kind      string   `json:"kind"`
	Input     string   `json:"input,omitempty"`
	Severity  string   `json:"severity,omitempty"`
	Matched   []string `json:"matched_patterns,omitempty"`
	Degraded  bool     `json:"degraded,omitempty"`
	ElapsedMS float64  `json:"elapsed_ms,omitempty"`
	Version   int64    `json:"pattern_version,omitempty"`
	Decision  string   `json:"decision,omitempty"`
	Source    string   `json:"source,omitempty"`
	Detail    string   `json:"detail,omitempty"`
}

// EventLogger serializes events to an append-only JSONL file.
type EventLogger struct {
	file *os.File
	mu   sync.Mutex
}

// New opens (or creates) the log file at path.
func New(path string) (*EventLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &EventLogger{file: file}, nil
}

// Log writes one event. Input text is redacted and truncated first.
func (l *EventLogger) Log(event Event) error {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if event.Input != "" {
		event.Input = redact.Redact(event.Input)
		if len(event.Input) > loggedInputLimit {
			event.Input = event.Input[:loggedInputLimit]
		}
	}
	if event.Detail != "" {
		event.Detail = redact.Redact(event.Detail)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.file.Write(data)
	return err
}

// Close closes the underlying file.
func (l *EventLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
