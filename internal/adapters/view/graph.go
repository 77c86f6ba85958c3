package view

import (
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/jonboulle/clockwork"
)

const (
	FullOpacity  = 1.0
	FadedOpacity = 0.15
)

type SignalKind string

const (
	SignalMark       SignalKind = "mark"
	SignalReposition SignalKind = "reposition"
	SignalReveal     SignalKind = "reveal"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type NodeState struct {
	Ref      domain.NodeRef `json:"ref"`
	Opacity  float64        `json:"opacity"`
	Position Point          `json:"position"`
}

type Panel struct {
	Node       domain.NodeRef     `json:"node"`
	Data       *domain.ArtistData `json:"data"`
	RevealedAt time.Time          `json:"revealed_at"`
}

// Signal is one journal entry: a view call and when it happened.
type Signal struct {
	Kind SignalKind     `json:"kind"`
	Node domain.NodeRef `json:"node"`
	At   time.Time      `json:"at"`
}

// Graph is an in-memory model of the artist graph. It records the visual consequences of
// each call instead of drawing anything.
type Graph struct {
	clock  clockwork.Clock
	logger *slog.Logger
	center Point

	mu       sync.RWMutex
	nodes    map[string]*NodeState
	selected *domain.NodeRef
	panel    *Panel
	journal  []Signal
}

func NewGraph(clock clockwork.Clock, logger *slog.Logger) *Graph {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Graph{
		clock:  clock,
		logger: logger.With("component", "graph-view"),
		nodes:  make(map[string]*NodeState),
	}
}

func (g *Graph) SetCenter(p Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.center = p
}

func (g *Graph) AddNode(node domain.NodeRef, at Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[node.ID] = &NodeState{Ref: node, Opacity: FullOpacity, Position: at}
}

func (g *Graph) MarkSelected(node domain.NodeRef) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[node.ID]; !ok {
		g.nodes[node.ID] = &NodeState{Ref: node}
	}
	for id, state := range g.nodes {
		if id == node.ID {
			state.Opacity = FullOpacity
		} else {
			state.Opacity = FadedOpacity
		}
	}

	selected := node
	g.selected = &selected
	g.record(SignalMark, node)
}

func (g *Graph) RepositionSelectedToCenter() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.selected == nil {
		g.logger.Warn("reposition requested with no selection")
		return
	}

	g.nodes[g.selected.ID].Position = g.center
	g.record(SignalReposition, *g.selected)
}

func (g *Graph) RevealArtistData(node domain.NodeRef, data *domain.ArtistData) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.panel = &Panel{Node: node, Data: data, RevealedAt: g.clock.Now()}
	g.record(SignalReveal, node)
}

func (g *Graph) record(kind SignalKind, node domain.NodeRef) {
	signal := Signal{Kind: kind, Node: node, At: g.clock.Now()}
	g.journal = append(g.journal, signal)
	g.logger.Debug("view signal", "kind", kind, "node", node.String())
}

func (g *Graph) Selected() (domain.NodeRef, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.selected == nil {
		return domain.NodeRef{}, false
	}
	return *g.selected, true
}

func (g *Graph) Node(id string) (NodeState, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	state, ok := g.nodes[id]
	if !ok {
		return NodeState{}, false
	}
	return *state, true
}

func (g *Graph) Panel() (Panel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.panel == nil {
		return Panel{}, false
	}
	return *g.panel, true
}

func (g *Graph) Journal() []Signal {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Signal, len(g.journal))
	copy(out, g.journal)
	return out
}

// JournalFor returns the signals recorded for one node, in order.
func (g *Graph) JournalFor(node domain.NodeRef) []Signal {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Signal
	for _, s := range g.journal {
		if s.Node.ID == node.ID {
			out = append(out, s)
		}
	}
	return out
}
