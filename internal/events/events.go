// Package events publishes notifications about position and focus-stock changes.
// Delivery is best effort: failures are logged and never reach the caller.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/datatypes"

	"tradebook/internal/logger"
	"tradebook/internal/uuid"
)

// EventType names what happened.
type EventType string

const (
	PositionCreated     EventType = "POSITION_CREATED"
	PositionUpdated     EventType = "POSITION_UPDATED"
	PositionClosed      EventType = "POSITION_CLOSED"
	PositionDeleted     EventType = "POSITION_DELETED"
	PositionRepriced    EventType = "POSITION_REPRICED"
	FocusStockConverted EventType = "FOCUS_STOCK_CONVERTED"
	FocusStockReverted  EventType = "FOCUS_STOCK_REVERTED"
	TeamVoteCast        EventType = "TEAM_VOTE_CAST"
)

// publishTimeout bounds a single publish once the request that caused it has returned.
const publishTimeout = 5 * time.Second

// Event is the message written to the sink.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	UserID     string         `json:"user_id,omitempty"`
	OwnerType  string         `json:"owner_type,omitempty"`
	OwnerID    string         `json:"owner_id,omitempty"`
	ResourceID string         `json:"resource_id"`
	Symbol     string         `json:"symbol,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    datatypes.JSON `json:"payload,omitempty"`
}

// New builds an event and snapshots payload as JSON.
func New(eventType EventType, resourceID, symbol string, payload any) Event {
	evt := Event{
		ID:         uuid.New(),
		Type:       eventType,
		ResourceID: resourceID,
		Symbol:     symbol,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Get().Errorw("failed to marshal event payload", "error", err, "type", eventType)
		} else {
			evt.Payload = datatypes.JSON(data)
		}
	}
	return evt
}

// Key is the partition key: events for one symbol stay ordered.
func (e Event) Key() string {
	if e.Symbol != "" {
		return e.Symbol
	}
	return e.ResourceID
}

// Sink delivers events somewhere.
type Sink interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Emit publishes evt and logs any failure. It detaches from ctx cancellation
// so a finished request does not abort the publish.
func Emit(ctx context.Context, sink Sink, evt Event) {
	if sink == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := sink.Publish(pubCtx, evt); err != nil {
		logger.Get().Errorw("failed to publish event",
			"error", err,
			"type", evt.Type,
			"resource_id", evt.ResourceID,
		)
	}
}

// LogSink writes events to the application log. Used when no broker is configured.
type LogSink struct{}

// NewLogSink creates a LogSink.
func NewLogSink() *LogSink { return &LogSink{} }

// Publish implements Sink.
func (LogSink) Publish(_ context.Context, evt Event) error {
	logger.Get().Infow("event",
		"id", evt.ID,
		"type", evt.Type,
		"user_id", evt.UserID,
		"resource_id", evt.ResourceID,
		"symbol", evt.Symbol,
	)
	return nil
}

// Close implements Sink.
func (LogSink) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

// Publish implements Sink. It returns r.Err after recording when set.
func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.Err
}

// Close implements Sink.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the types of everything published so far, in order.
func (r *Recorder) Types() []EventType {
	evts := r.Events()
	out := make([]EventType, len(evts))
	for i, e := range evts {
		out[i] = e.Type
	}
	return out
}
