// Package panther is the client core of an artist-graph explorer.
//
// It provides two pieces:
//   - A cached Spotify access token with at most one token exchange in flight
//   - A select-artist workflow that marks a node, waits, centers it and reveals its
//     artist data once that data has arrived
//
// Basic usage:
//
//	config := panther.NewConfigBuilder("./data").
//	    WithProxyProvider("https://example.com/api/spotify/token").
//	    Build()
//
//	manager, err := panther.New(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	manager.Start(context.Background())
//	defer manager.Stop()
//
//	manager.OnRunCompleted(func(run panther.RunEvent) {
//	    fmt.Println("revealed", run.Node)
//	})
//	manager.SelectArtist(panther.NodeRef{ID: "4Z8W4fKeB5YxbusRsdQVPb"})
package panther

import (
	"github.com/eleven-am/panther/internal/adapters/view"
	"github.com/eleven-am/panther/internal/core"
	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/ports"
	"github.com/jonboulle/clockwork"
)

// Manager owns the token cache, the event bus, the artist data registry, the graph
// view and the workflow orchestrator.
type Manager = core.Manager

// NodeRef identifies an artist node in the graph by its Spotify artist id.
type NodeRef = domain.NodeRef

// ArtistData is what the artist panel shows after a reveal.
type ArtistData = domain.ArtistData

type ArtistSummary = domain.ArtistSummary

// Event is a bus message. Selections and run milestones travel as events.
type Event = domain.Event

type SelectionEvent = domain.SelectionEvent

// RunEvent is delivered to OnRunCompleted and OnRunCancelled handlers.
type RunEvent = domain.RunEvent

// WorkflowRun is a snapshot of one select-artist run.
type WorkflowRun = domain.WorkflowRun

type RunState = domain.RunState

const (
	RunStateIdle         = domain.RunStateIdle
	RunStateMarked       = domain.RunStateMarked
	RunStateRepositioned = domain.RunStateRepositioned
	RunStateAwaitingData = domain.RunStateAwaitingData
	RunStateRevealed     = domain.RunStateRevealed
	RunStateCancelled    = domain.RunStateCancelled
)

const (
	EventSelectArtist = domain.EventSelectArtist
	EventRunStarted   = domain.EventRunStarted
	EventRunRevealed  = domain.EventRunRevealed
	EventRunCancelled = domain.EventRunCancelled
)

// AcquireCallback receives the access token, or ok == false when none is available.
type AcquireCallback = ports.AcquireCallback

type EventHandler = ports.EventHandler

// Graph is the in-memory graph view the orchestrator drives.
type Graph = view.Graph

type Signal = view.Signal

type Panel = view.Panel

var (
	ErrAlreadyStarted      = domain.ErrAlreadyStarted
	ErrNotStarted          = domain.ErrNotStarted
	ErrInvalidConfig       = domain.ErrInvalidConfig
	ErrInvalidInput        = domain.ErrInvalidInput
	ErrAcquisitionInFlight = domain.ErrAcquisitionInFlight
	ErrTokenUnavailable    = domain.ErrTokenUnavailable
)

func New(config *Config) (*Manager, error) {
	return core.NewManager(config)
}

// NewWithClock is New with an explicit clock, mainly for driving the reposition delay
// from a fake clock in tests.
func NewWithClock(config *Config, clock clockwork.Clock) (*Manager, error) {
	return core.NewManagerWithClock(config, clock)
}

// IsRefusal reports whether err means another token exchange is already running.
func IsRefusal(err error) bool {
	return domain.IsRefusal(err)
}

func IsAcquisitionError(err error) bool {
	return domain.IsAcquisitionError(err)
}
