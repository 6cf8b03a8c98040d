package share

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/metrics"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

var ErrNothingPending = errors.New("no shared cart is pending confirmation")

type State int

const (
	Idle State = iota
	PendingConfirmation
	Applied
	Rejected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingConfirmation:
		return "pendingConfirmation"
	case Applied:
		return "applied"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Replacer receives a confirmed shared cart.
type Replacer interface {
	ReplaceAll(c context.Context, lines []domain.Line) error
}

// Flow guards a shared cart behind explicit confirmation. Applied and Rejected are
// reported as outcomes; the flow itself then rests in Idle.
type Flow struct {
	mu      sync.Mutex
	state   State
	token   string
	pending []domain.Line
}

func NewFlow() *Flow {
	return &Flow{state: Idle}
}

// Receive decodes token and holds it for confirmation, superseding any pending token.
// An empty token is ignored. A malformed token is rejected and clears nothing else.
func (f *Flow) Receive(c context.Context, token string) (State, error) {
	c, span := otel.Tracer.Start(c, "Flow Receive")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Flow Receive").
		Str(log.KeyShareToken, token).
		Logger()

	f.mu.Lock()
	defer f.mu.Unlock()

	if token == "" {
		return f.state, nil
	}

	lines, err := Decode(token)
	if err != nil {
		metrics.ShareOutcomes.WithLabelValues(Rejected.String()).Inc()
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg("rejected shared cart token")
		return Rejected, err
	}

	f.state = PendingConfirmation
	f.token = token
	f.pending = lines
	metrics.ShareOutcomes.WithLabelValues(PendingConfirmation.String()).Inc()
	logger.Info().Int(log.KeyCartLines, len(lines)).Msg("shared cart pending confirmation")

	return PendingConfirmation, nil
}

// Pending returns a copy of the lines awaiting confirmation.
func (f *Flow) Pending() ([]domain.Line, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != PendingConfirmation {
		return nil, "", false
	}
	lines := make([]domain.Line, len(f.pending))
	copy(lines, f.pending)
	return lines, f.token, true
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Confirm replaces the cart with the pending lines. When the replacement fails the
// shared cart stays pending.
func (f *Flow) Confirm(c context.Context, r Replacer) ([]domain.Line, error) {
	c, span := otel.Tracer.Start(c, "Flow Confirm")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Flow Confirm").Logger()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != PendingConfirmation {
		return nil, ErrNothingPending
	}
	lines := f.pending
	c = logger.WithContext(c)
	if err := r.ReplaceAll(c, lines); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	f.reset()
	metrics.ShareOutcomes.WithLabelValues(Applied.String()).Inc()
	logger.Info().Int(log.KeyCartLines, len(lines)).Msg("applied shared cart")

	return lines, nil
}

func (f *Flow) Cancel(c context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != PendingConfirmation {
		return ErrNothingPending
	}
	f.reset()
	metrics.ShareOutcomes.WithLabelValues("cancelled").Inc()
	zerolog.Ctx(c).Info().Str(log.KeyTag, "Flow Cancel").Msg("cancelled shared cart")
	return nil
}

func (f *Flow) reset() {
	f.state = Idle
	f.token = ""
	f.pending = nil
}
