package circuit_breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/jonboulle/clockwork"
)

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
}

type Metrics struct {
	State              State     `json:"state"`
	ConsecutiveFailure int       `json:"consecutive_failure"`
	RequestsRejected   int64     `json:"requests_rejected"`
	LastStateChange    time.Time `json:"last_state_change"`
}

// Breaker stops calling an upstream after FailureThreshold consecutive failures, then
// lets a single probe through once Cooldown has passed.
type Breaker struct {
	name   string
	config Config
	clock  clockwork.Clock
	logger *slog.Logger

	mu                 sync.Mutex
	state              State
	consecutiveFailure int
	consecutiveSuccess int
	probing            bool
	nextRetry          time.Time
	lastStateChange    time.Time
	rejected           int64
}

func NewBreaker(name string, config Config, clock clockwork.Clock, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}

	return &Breaker{
		name:            name,
		config:          config,
		clock:           clock,
		logger:          logger.With("component", "circuit-breaker", "name", name),
		state:           StateClosed,
		lastStateChange: clock.Now(),
	}
}

func (b *Breaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if !b.allowRequest() {
		b.logger.Debug("request rejected", "state", b.State().String())
		return domain.NewComponentError(b.name, "call", ErrCircuitBreakerOpen)
	}

	err := fn(ctx)
	if countsAsFailure(ctx, err) {
		b.onFailure()
	} else {
		b.onSuccess()
	}
	return err
}

// countsAsFailure ignores answers that say nothing about upstream health, such as an
// unknown artist id or the caller giving up.
func countsAsFailure(ctx context.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
		return false
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return false
	default:
		return true
	}
}

func (b *Breaker) allowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && !b.clock.Now().Before(b.nextRetry) {
		b.setState(StateHalfOpen)
	}

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probing {
			b.rejected++
			return false
		}
		b.probing = true
		return true
	default:
		b.rejected++
		return false
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailure = 0
	b.consecutiveSuccess++

	if b.state == StateHalfOpen {
		b.probing = false
		if b.consecutiveSuccess >= b.config.SuccessThreshold {
			b.setState(StateClosed)
		}
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveSuccess = 0
	b.consecutiveFailure++

	switch b.state {
	case StateClosed:
		if b.consecutiveFailure >= b.config.FailureThreshold {
			b.setState(StateOpen)
		}
	case StateHalfOpen:
		b.probing = false
		b.setState(StateOpen)
	}
}

func (b *Breaker) setState(next State) {
	previous := b.state
	if previous == next {
		return
	}

	b.logger.Info("circuit breaker state change",
		"from", previous.String(),
		"to", next.String(),
		"consecutive_failures", b.consecutiveFailure)

	b.state = next
	b.lastStateChange = b.clock.Now()

	switch next {
	case StateOpen:
		b.nextRetry = b.lastStateChange.Add(b.config.Cooldown)
	case StateHalfOpen:
		b.consecutiveSuccess = 0
	case StateClosed:
		b.nextRetry = time.Time{}
		b.consecutiveFailure = 0
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Metrics{
		State:              b.state,
		ConsecutiveFailure: b.consecutiveFailure,
		RequestsRejected:   b.rejected,
		LastStateChange:    b.lastStateChange,
	}
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Info("circuit breaker reset")
	b.probing = false
	b.setState(StateClosed)
	b.consecutiveFailure = 0
	b.consecutiveSuccess = 0
}
