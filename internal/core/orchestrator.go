package core

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/ports"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const maxHistory = 128

type OrchestratorConfig struct {
	RepositionDelay   time.Duration
	SupersedePrevious bool
}

// Orchestrator turns every select-artist event into a workflow run:
// mark the node, wait RepositionDelay, move it to the center, then reveal its artist
// data as soon as the data source has it. Runs for different selections proceed
// independently unless SupersedePrevious is set.
type Orchestrator struct {
	bus    ports.EventBus
	view   ports.GraphView
	source ports.ArtistDataSource
	clock  clockwork.Clock
	config OrchestratorConfig
	logger *slog.Logger

	mu          sync.RWMutex
	started     bool
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	generation  uint64
	runs        map[string]*liveRun
	history     []domain.WorkflowRun

	wg sync.WaitGroup
}

type liveRun struct {
	mu     sync.Mutex
	run    *domain.WorkflowRun
	cancel context.CancelFunc
}

func (l *liveRun) snapshot() domain.WorkflowRun {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.run
}

func NewOrchestrator(
	bus ports.EventBus,
	view ports.GraphView,
	source ports.ArtistDataSource,
	clock clockwork.Clock,
	config OrchestratorConfig,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Orchestrator{
		bus:    bus,
		view:   view,
		source: source,
		clock:  clock,
		config: config,
		logger: logger.With("component", "orchestrator"),
		runs:   make(map[string]*liveRun),
	}
}

// Start begins watching the bus for select-artist events. Every occurrence starts its
// own run.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return domain.NewComponentError("orchestrator", "start", domain.ErrAlreadyStarted)
	}

	o.ctx, o.cancel = context.WithCancel(ctx)

	unsubscribe, err := o.bus.Subscribe(domain.EventSelectArtist, o.handleSelection)
	if err != nil {
		o.cancel()
		return domain.NewComponentError("orchestrator", "subscribe", err)
	}

	o.unsubscribe = unsubscribe
	o.started = true

	o.logger.Info("orchestrator started",
		"reposition_delay", o.config.RepositionDelay,
		"supersede_previous", o.config.SupersedePrevious)
	return nil
}

// Stop stops watching, cancels every live run and waits for them to settle.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return domain.NewComponentError("orchestrator", "stop", domain.ErrNotStarted)
	}
	o.started = false
	o.unsubscribe()
	o.cancel()
	o.mu.Unlock()

	o.wg.Wait()
	o.logger.Info("orchestrator stopped")
	return nil
}

func (o *Orchestrator) handleSelection(event domain.Event) {
	selection, ok := event.Selection()
	if !ok {
		o.logger.Warn("ignoring select-artist event without a selection payload", "event_id", event.ID)
		return
	}

	o.mu.RLock()
	ctx := o.ctx
	o.mu.RUnlock()

	if _, err := o.Dispatch(ctx, selection); err != nil {
		o.logger.Warn("selection not dispatched", "node", selection.Node.String(), "error", err)
	}
}

// Dispatch starts a run for one selection and returns its initial snapshot. The run ends
// early when ctx is cancelled, when the orchestrator stops, or when a newer selection
// supersedes it.
func (o *Orchestrator) Dispatch(ctx context.Context, selection domain.SelectionEvent) (*domain.WorkflowRun, error) {
	if err := selection.Node.Validate(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return nil, domain.NewComponentError("orchestrator", "dispatch", domain.ErrNotStarted)
	}

	o.generation++
	run := domain.NewWorkflowRun(uuid.New().String(), selection.Node, o.generation, o.config.RepositionDelay, o.clock.Now())

	runCtx, cancel := context.WithCancel(ctx)
	stopOnShutdown := context.AfterFunc(o.ctx, cancel)

	live := &liveRun{run: run, cancel: cancel}

	if o.config.SupersedePrevious {
		for _, previous := range o.runs {
			previous.cancel()
		}
	}

	o.runs[run.ID] = live
	o.wg.Add(1)
	o.mu.Unlock()

	snapshot := *run

	go func() {
		defer o.wg.Done()
		defer stopOnShutdown()
		defer cancel()
		defer o.finish(live)

		o.execute(runCtx, live)
	}()

	o.logger.Debug("workflow run dispatched", "run_id", run.ID, "node", run.Node.String(), "generation", run.Generation)
	return &snapshot, nil
}

func (o *Orchestrator) execute(ctx context.Context, live *liveRun) {
	node := live.run.Node

	o.signal("mark", func() { o.view.MarkSelected(node) })
	o.advance(live, domain.RunStateMarked)
	o.publish(domain.EventRunStarted, live)

	timer := o.clock.NewTimer(live.run.Delay)
	select {
	case <-timer.Chan():
	case <-ctx.Done():
		timer.Stop()
		o.abandon(live)
		return
	}

	o.signal("reposition", func() { o.view.RepositionSelectedToCenter() })
	o.advance(live, domain.RunStateRepositioned)

	if data, ok := o.source.Artist(node); ok {
		o.reveal(live, data)
		return
	}

	o.advance(live, domain.RunStateAwaitingData)

	resolved := make(chan *domain.ArtistData, 1)
	stopWaiting := o.source.OnResolved(node, func(data *domain.ArtistData) {
		resolved <- data
	})

	select {
	case data := <-resolved:
		o.reveal(live, data)
	case <-ctx.Done():
		stopWaiting()
		o.abandon(live)
	}
}

func (o *Orchestrator) reveal(live *liveRun, data *domain.ArtistData) {
	node := live.run.Node
	o.signal("reveal", func() { o.view.RevealArtistData(node, data) })
	o.advance(live, domain.RunStateRevealed)
	o.publish(domain.EventRunRevealed, live)
}

func (o *Orchestrator) abandon(live *liveRun) {
	o.advance(live, domain.RunStateCancelled)
	o.publish(domain.EventRunCancelled, live)
}

func (o *Orchestrator) advance(live *liveRun, next domain.RunState) {
	now := o.clock.Now()

	live.mu.Lock()
	err := live.run.Transition(next, now)
	id, step := live.run.ID, live.run.Step
	live.mu.Unlock()

	if err != nil {
		o.logger.Error("invalid run transition", "run_id", id, "error", err)
		return
	}
	o.logger.Debug("run advanced", "run_id", id, "state", next, "step", step)
}

func (o *Orchestrator) signal(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("view signal panicked", "signal", name, "panic", r)
		}
	}()
	fn()
}

func (o *Orchestrator) publish(eventType string, live *liveRun) {
	snapshot := live.snapshot()
	event := domain.NewEvent(eventType, snapshot.Event(o.clock.Now()), o.clock.Now())

	if err := o.bus.Publish(event); err != nil {
		o.logger.Debug("run event not published", "type", eventType, "run_id", snapshot.ID, "error", err)
	}
}

func (o *Orchestrator) finish(live *liveRun) {
	snapshot := live.snapshot()

	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.runs, snapshot.ID)
	o.history = append(o.history, snapshot)
	if len(o.history) > maxHistory {
		o.history = o.history[len(o.history)-maxHistory:]
	}
}

// Runs returns snapshots of the runs still in progress, oldest generation first.
func (o *Orchestrator) Runs() []domain.WorkflowRun {
	o.mu.RLock()
	lives := make([]*liveRun, 0, len(o.runs))
	for _, live := range o.runs {
		lives = append(lives, live)
	}
	o.mu.RUnlock()

	out := make([]domain.WorkflowRun, 0, len(lives))
	for _, live := range lives {
		out = append(out, live.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Generation < out[j].Generation })
	return out
}

// History returns the most recent finished runs in completion order.
func (o *Orchestrator) History() []domain.WorkflowRun {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]domain.WorkflowRun, len(o.history))
	copy(out, o.history)
	return out
}

func (o *Orchestrator) IsStarted() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.started
}
