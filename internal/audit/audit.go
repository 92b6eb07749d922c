// Package audit records who changed the ledger and when.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Ledger events.
const (
	EventJournalPosted    = "journal.posted"
	EventPeriodCreated    = "period.created"
	EventPeriodClosed     = "period.closed"
	EventBalancesRebuilt  = "balances.rebuilt"
	EventChartProvisioned = "chart.provisioned"
	EventIntegrityFault   = "ledger.integrity_fault"
)

// Event is a single audit record.
type Event struct {
	Timestamp time.Time      `json:"ts"`
	Name      string         `json:"event"`
	UserID    string         `json:"user_id,omitempty"`
	Fields    map[string]any `json:"fields"`
}

// Sink receives audit events. Callers treat failures as non-fatal: the ledger
// change has already committed by the time it is recorded.
type Sink interface {
	Record(ctx context.Context, name, userID string, fields map[string]any) error
}

func newEvent(name, userID string, fields map[string]any) (Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, errors.New("event name is required")
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Event{
		Timestamp: time.Now().UTC(),
		Name:      name,
		UserID:    userID,
		Fields:    copied,
	}, nil
}

// SlogSink writes events as structured log records tagged type=audit.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a sink writing to logger, or slog.Default when nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Record(ctx context.Context, name, userID string, fields map[string]any) error {
	ev, err := newEvent(name, userID, fields)
	if err != nil {
		return err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("type", "audit"),
		slog.String("event", ev.Name),
		slog.String("user_id", ev.UserID),
		slog.Time("ts", ev.Timestamp),
		slog.Any("fields", ev.Fields),
	)
	return nil
}

// MemorySink keeps events in memory. Used by tests and the in-memory store.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(_ context.Context, name, userID string, fields map[string]any) error {
	ev, err := newEvent(name, userID, fields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

// Events returns a snapshot of the recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Named returns the recorded events with the given name.
func (s *MemorySink) Named(name string) []Event {
	var out []Event
	for _, ev := range s.Events() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
