package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSelectArtist = "graph:select-artist"

	EventRunStarted   = "workflow:run:started"
	EventRunRevealed  = "workflow:run:revealed"
	EventRunCancelled = "workflow:run:cancelled"
)

type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SelectionEvent is produced when the user picks a node. Each occurrence is consumed by
// exactly one workflow run.
type SelectionEvent struct {
	Node       NodeRef   `json:"node"`
	SelectedAt time.Time `json:"selected_at"`
}

// RunEvent describes a workflow run reaching a lifecycle milestone.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	Node       NodeRef   `json:"node"`
	Generation uint64    `json:"generation"`
	State      RunState  `json:"state"`
	At         time.Time `json:"at"`
}

func NewEvent(eventType string, payload interface{}, at time.Time) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: at,
	}
}

func NewSelectionEvent(node NodeRef, at time.Time) Event {
	return NewEvent(EventSelectArtist, SelectionEvent{Node: node, SelectedAt: at}, at)
}

func (e Event) Selection() (SelectionEvent, bool) {
	switch p := e.Payload.(type) {
	case SelectionEvent:
		return p, true
	case *SelectionEvent:
		if p == nil {
			return SelectionEvent{}, false
		}
		return *p, true
	default:
		return SelectionEvent{}, false
	}
}

func (e Event) Run() (RunEvent, bool) {
	p, ok := e.Payload.(RunEvent)
	return p, ok
}
