package domain

import (
	"fmt"
	"time"
)

type RunState string

const (
	RunStateIdle         RunState = "idle"
	RunStateMarked       RunState = "marked"
	RunStateRepositioned RunState = "repositioned"
	RunStateAwaitingData RunState = "awaiting_data"
	RunStateRevealed     RunState = "revealed"
	RunStateCancelled    RunState = "cancelled"
)

var runTransitions = map[RunState][]RunState{
	RunStateIdle:         {RunStateMarked, RunStateCancelled},
	RunStateMarked:       {RunStateRepositioned, RunStateCancelled},
	RunStateRepositioned: {RunStateRevealed, RunStateAwaitingData, RunStateCancelled},
	RunStateAwaitingData: {RunStateRevealed, RunStateCancelled},
}

func (s RunState) IsTerminal() bool {
	return s == RunStateRevealed || s == RunStateCancelled
}

func (s RunState) CanTransitionTo(next RunState) bool {
	for _, allowed := range runTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// WorkflowRun is one execution of the select-artist step sequence for one selection.
//
//	idle -> marked -> (delay) -> repositioned -> revealed
//	                                          -> awaiting_data -> revealed
//
// Any non-terminal state may move to cancelled when a newer generation supersedes it.
type WorkflowRun struct {
	ID         string   `json:"id"`
	Node       NodeRef  `json:"node"`
	Generation uint64   `json:"generation"`
	State      RunState `json:"state"`
	Step       int      `json:"step"`

	// Delay is the scheduled suspension between mark and reposition; Elapsed is the
	// actual time spent suspended, which is never shorter than Delay.
	Delay     time.Duration `json:"delay"`
	Elapsed   time.Duration `json:"elapsed"`
	DataReady bool          `json:"data_ready"`

	StartedAt      time.Time `json:"started_at"`
	MarkedAt       time.Time `json:"marked_at,omitempty"`
	RepositionedAt time.Time `json:"repositioned_at,omitempty"`
	RevealedAt     time.Time `json:"revealed_at,omitempty"`
	CancelledAt    time.Time `json:"cancelled_at,omitempty"`
}

func NewWorkflowRun(id string, node NodeRef, generation uint64, delay time.Duration, now time.Time) *WorkflowRun {
	return &WorkflowRun{
		ID:         id,
		Node:       node,
		Generation: generation,
		State:      RunStateIdle,
		Delay:      delay,
		StartedAt:  now,
	}
}

func (r *WorkflowRun) Transition(next RunState, at time.Time) error {
	if !r.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, next)
	}

	switch next {
	case RunStateMarked:
		r.MarkedAt = at
	case RunStateRepositioned:
		r.RepositionedAt = at
		if !r.MarkedAt.IsZero() {
			r.Elapsed = at.Sub(r.MarkedAt)
		}
	case RunStateRevealed:
		r.RevealedAt = at
		r.DataReady = true
	case RunStateCancelled:
		r.CancelledAt = at
	}

	r.State = next
	r.Step++
	return nil
}

func (r *WorkflowRun) IsDone() bool {
	return r.State.IsTerminal()
}

func (r *WorkflowRun) Event(at time.Time) RunEvent {
	return RunEvent{
		RunID:      r.ID,
		Node:       r.Node,
		Generation: r.Generation,
		State:      r.State,
		At:         at,
	}
}
