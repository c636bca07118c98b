package helpers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sjsage522/profitsniper/logger"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(component string, err error)
	LogInfo(format string, args ...interface{})
}

// Event is one entry of the event log
type Event struct {
	Time      time.Time `json:"timestamp"`
	Kind      string    `json:"type"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message"`
}

// EventLog keeps the most recent events in memory and periodically writes them to a JSON file
type EventLog struct {
	mu         sync.Mutex
	file       string
	capacity   int
	flushEvery int
	pending    int
	events     []Event
}

// NewEventLog creates an event log. An empty file keeps events in memory only.
func NewEventLog(file string, capacity, flushEvery int) *EventLog {
	if capacity <= 0 {
		capacity = 1000
	}
	if flushEvery <= 0 {
		flushEvery = 10
	}
	return &EventLog{
		file:       file,
		capacity:   capacity,
		flushEvery: flushEvery,
	}
}

// LogError records an error and forwards it to the structured logger
func (l *EventLog) LogError(component string, err error) {
	logger.ForComponent(component).Error().Err(err).Msg("error")
	l.Record("error", component, err.Error())
}

// LogInfo records an informational message
func (l *EventLog) LogInfo(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Info("%s", msg)
	l.Record("info", "", msg)
}

// Record appends an event, evicting the oldest once capacity is reached
func (l *EventLog) Record(kind, component, message string) {
	l.mu.Lock()
	l.events = append(l.events, Event{
		Time:      time.Now(),
		Kind:      kind,
		Component: component,
		Message:   message,
	})
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
	l.pending++
	flush := l.pending >= l.flushEvery
	l.mu.Unlock()

	if flush {
		if err := l.Flush(); err != nil {
			logger.ForComponent("eventlog").Warn().Err(err).Msg("failed to flush event log")
		}
	}
}

// Events returns a copy of the retained events, oldest first
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Flush writes the retained events to disk
func (l *EventLog) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = 0
	if l.file == "" {
		return nil
	}
	return WriteJSONFile(l.file, l.events)
}

// WriteJSONFile writes v atomically through a temporary file
func WriteJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	// each writer gets its own temp file so concurrent saves never share one
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ReadJSONFile decodes path into v. A missing file is not an error and leaves v untouched.
func ReadJSONFile(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}
