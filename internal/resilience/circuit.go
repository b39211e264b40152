package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the breaker refuses a request. Callers fall
// back to cached data or a degraded answer instead of waiting on a dependency
// that is already struggling.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

var breakerNopLogger = zerolog.Nop()

// State is the breaker position.
type State int

const (
	// Closed lets traffic through while counting outcomes.
	Closed State = iota
	// Open rejects traffic until the cool-off elapses.
	Open
	// HalfOpen lets a single probe through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// window tracks recent request outcomes while the breaker is closed.
type window struct {
	failures  int
	successes int
}

func (w *window) record(success bool) {
	if success {
		w.successes++
	} else {
		w.failures++
	}
}

func (w *window) total() int { return w.failures + w.successes }

func (w *window) failureRatio() float64 {
	total := w.total()
	if total == 0 {
		return 0
	}
	return float64(w.failures) / float64(total)
}

// decay halves the counters so ancient outcomes stop dominating the ratio.
func (w *window) decay() {
	w.successes = int(math.Ceil(float64(w.successes) * 0.5))
	w.failures = int(math.Ceil(float64(w.failures) * 0.5))
}

func (w *window) reset() {
	w.failures = 0
	w.successes = 0
}

// Breaker guards one upstream of the storefront (catalog, shipping, orders,
// content) and opens when the observed failure ratio crosses the threshold.
type Breaker struct {
	mu           sync.Mutex
	state        State
	win          window
	minRequests  int
	failureRatio float64
	openedAt     time.Time
	openFor      time.Duration
	target       string
	logger       *zerolog.Logger
}

// NewBreaker builds a closed breaker. It opens once at least minRequests
// outcomes are seen and the failure ratio reaches failureRatio, then stays
// open for openFor before probing.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 {
		failureRatio = 0.5
	}
	if failureRatio > 1 {
		failureRatio = 1
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		state:        Closed,
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
	}
}

// WithTarget names the guarded upstream for metric labels and logs.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = strings.TrimSpace(target)
	b.recordStateLocked()
	return b
}

// WithLogger sets the logger used for transition events.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = &logger
	return b
}

// Allow reports whether the next request may proceed. An open breaker starts
// permitting again once its cool-off elapses, moving to half-open so a single
// probe decides the next state.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Open {
		return true
	}
	if time.Since(b.openedAt) >= b.openFor {
		b.changeStateLocked(ctx, HalfOpen)
		return true
	}
	return false
}

// Report feeds one request outcome into the state machine.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		// outcomes of requests that raced the transition carry no signal
		return
	case HalfOpen:
		if success {
			b.changeStateLocked(ctx, Closed)
		} else {
			b.changeStateLocked(ctx, Open)
		}
		return
	}

	b.win.record(success)
	if b.win.total() < b.minRequests {
		return
	}
	if b.win.failureRatio() >= b.failureRatio {
		b.changeStateLocked(ctx, Open)
		return
	}
	if b.win.total() > b.minRequests*2 {
		b.win.decay()
	}
}

// Backoff computes the delay before retry number attempt, doubling from base
// with jitterPct (0.2 means plus or minus 20%) spread to keep retries from
// aligning across clients.
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if jitterPct <= 0 {
		return d
	}
	spread := float64(d) * jitterPct
	return d + time.Duration((rand.Float64()*2-1)*spread)
}

func (b *Breaker) changeStateLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		b.recordStateLocked()
		return
	}
	b.state = next
	switch next {
	case Open:
		b.openedAt = time.Now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.win.reset()
	b.recordStateLocked()
	b.recordTransition(ctx, prev, next)
}

func (b *Breaker) recordStateLocked() {
	if BreakerState == nil {
		return
	}
	BreakerState.WithLabelValues(b.targetLabel()).Set(stateGaugeValue(b.state))
}

func (b *Breaker) recordTransition(ctx context.Context, from, to State) {
	label := b.targetLabel()
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(label, from.String(), to.String()).Inc()
	}
	if to == Open && BreakerOpenedTotal != nil {
		BreakerOpenedTotal.WithLabelValues(label).Inc()
	}

	evt := b.loggerFor(ctx).Info().
		Str("target", label).
		Str("from_state", from.String()).
		Str("to_state", to.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) targetLabel() string {
	if t := strings.TrimSpace(b.target); t != "" {
		return t
	}
	return "default"
}

func (b *Breaker) loggerFor(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger != nil {
		logger := ctxLogger.With().Logger()
		return &logger
	}
	if b.logger == nil {
		return &breakerNopLogger
	}
	return b.logger
}

// stateGaugeValue maps states to the gauge encoding 0=closed 1=open 2=half-open.
func stateGaugeValue(state State) float64 {
	switch state {
	case Closed:
		return 0
	case Open:
		return 1
	case HalfOpen:
		return 2
	default:
		return -1
	}
}
