package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventLoad      EventType = "load"
	EventCoercion  EventType = "coercion"
	EventLinkSkip  EventType = "link_skip"
	EventQuery     EventType = "query"
	EventUndefined EventType = "undefined"
	EventRecommend EventType = "recommend"
	EventFallback  EventType = "fallback"
	EventSession   EventType = "session"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel converts a level name, defaulting to info
func ParseLevel(s string) EventLevel {
	level := EventLevel(s)
	if _, ok := levelPriority[level]; ok {
		return level
	}
	return LevelInfo
}

// Event represents a single event of a catalog session
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	RunID     string            `json:"run_id,omitempty"`
	Source    string            `json:"source,omitempty"`
	Line      int               `json:"line,omitempty"`
	Track     string            `json:"track,omitempty"`
	Artist    string            `json:"artist,omitempty"`
	Column    string            `json:"column,omitempty"`
	Value     string            `json:"value,omitempty"`
	Query     string            `json:"query,omitempty"`
	Rows      int               `json:"rows,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogLoadStart logs the beginning of a dataset load
func (l *EventLogger) LogLoadStart(runID, source, encoding string, rows int) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventLoad,
		RunID:  runID,
		Source: source,
		Rows:   rows,
		Extra: map[string]string{
			"encoding": encoding,
			"phase":    "start",
		},
	})
}

// LogLoadDone logs the commit or rollback of a dataset load
func (l *EventLogger) LogLoadDone(runID string, duration time.Duration, err error) error {
	level := LevelInfo
	phase := "commit"
	errMsg := ""
	if err != nil {
		level = LevelError
		phase = "rollback"
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventLoad,
		RunID:    runID,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
		Extra: map[string]string{
			"phase": phase,
		},
	})
}

// LogCoercion logs a field that failed to parse and the value stored instead
func (l *EventLogger) LogCoercion(runID string, line int, column, value, applied string) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventCoercion,
		RunID:  runID,
		Line:   line,
		Column: column,
		Value:  value,
		Reason: "stored " + applied,
	})
}

// LogLinkSkipped logs an artist credit that could not be resolved
func (l *EventLogger) LogLinkSkipped(runID string, line int, track, artist string) error {
	return l.Log(&Event{
		Level:  LevelWarning,
		Event:  EventLinkSkip,
		RunID:  runID,
		Line:   line,
		Track:  track,
		Artist: artist,
		Reason: "artist not found",
	})
}

// LogQuery logs an analytical query run
func (l *EventLogger) LogQuery(query string, rows int, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventQuery,
		Query:    query,
		Rows:     rows,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
	})
}

// LogUndefined logs a group excluded because its statistic is undefined
func (l *EventLogger) LogUndefined(query, group, reason string) error {
	return l.Log(&Event{
		Level:  LevelWarning,
		Event:  EventUndefined,
		Query:  query,
		Value:  group,
		Reason: reason,
	})
}

// LogRecommend logs a recommendation request and how many tracks matched
func (l *EventLogger) LogRecommend(preferences map[string]string, rows int, fallback bool) error {
	event := EventRecommend
	level := LevelInfo
	if fallback {
		event = EventFallback
		level = LevelWarning
	}

	return l.Log(&Event{
		Level: level,
		Event: event,
		Rows:  rows,
		Extra: preferences,
	})
}

// LogSession logs a session state transition
func (l *EventLogger) LogSession(from, to string) error {
	return l.Log(&Event{
		Level: LevelDebug,
		Event: EventSession,
		Extra: map[string]string{
			"from": from,
			"to":   to,
		},
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, source string, err error) error {
	return l.Log(&Event{
		Level:  LevelError,
		Event:  event,
		Source: source,
		Error:  err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
