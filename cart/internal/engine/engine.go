package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/metrics"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

var ErrClosed = errors.New("cart engine is closed")

const DefaultDebounce = 250 * time.Millisecond

type Options struct {
	// Debounce delays write-through so bursts of mutations are saved once.
	Debounce time.Duration
}

// Engine owns the authoritative in-memory cart of one session. Mutations apply
// synchronously; the store is written in the background with the latest state.
type Engine struct {
	id       uuid.UUID
	store    store.Store
	debounce time.Duration
	// bg carries the logger of the opening request without its cancellation.
	bg context.Context

	mu           sync.Mutex
	lines        []domain.Line
	version      uint64
	savedVersion uint64
	closed       bool

	saveMu sync.Mutex

	dirty   chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// Open loads the stored cart and starts the background writer. A missing, unreadable
// or corrupt stored cart yields an empty cart; load failures are logged, never returned.
func Open(c context.Context, id uuid.UUID, st store.Store, opts Options) *Engine {
	c, span := otel.Tracer.Start(c, "Engine Open")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Engine Open").
		Str(log.KeySessionID, id.String()).
		Logger()

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	e := &Engine{
		id:       id,
		store:    st,
		debounce: debounce,
		bg:       context.WithoutCancel(logger.WithContext(c)),
		lines:    []domain.Line{},
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
	logger.Trace().Msg("loading cart")
	c = logger.WithContext(c)
	lines, err := st.Load(c, id)
	switch {
	case err != nil:
		operation := "load"
		if errors.Is(err, store.ErrCorrupt) {
			operation = "load_corrupt"
		}
		metrics.StoreFailures.WithLabelValues(operation).Inc()
		err = fmt.Errorf("failed loading cart, starting empty with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
	case lines != nil:
		e.lines = lines
		logger.Trace().Int(log.KeyCartLines, len(lines)).Msg("loaded cart")
	default:
		logger.Trace().Msg("no stored cart, starting empty")
	}

	go e.run()
	return e
}

func (e *Engine) ID() uuid.UUID {
	return e.id
}

func (e *Engine) run() {
	defer close(e.stopped)
	for {
		select {
		case <-e.done:
			return
		case <-e.dirty:
		}

		timer := time.NewTimer(e.debounce)
		select {
		case <-e.done:
			timer.Stop()
			return
		case <-timer.C:
		}

		_ = e.Flush(e.bg)
	}
}

// mutate applies fn under the lock and schedules a write when fn reports a change.
func (e *Engine) mutate(c context.Context, operation string, fn func() (bool, error)) error {
	c, span := otel.Tracer.Start(c, "Engine "+operation)
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Engine "+operation).
		Str(log.KeySessionID, e.id.String()).
		Logger()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		inOtel.RecordError(ErrClosed, span)
		return ErrClosed
	}
	changed, err := fn()
	if err != nil {
		e.mu.Unlock()
		inOtel.RecordError(err, span)
		logger.Debug().Err(err).Msg(err.Error())
		return err
	}
	if !changed {
		e.mu.Unlock()
		return nil
	}
	e.version++
	version := e.version
	e.mu.Unlock()

	metrics.Mutations.WithLabelValues(operation).Inc()
	logger.Trace().Uint64(log.KeyCartVersion, version).Msg("applied mutation")

	select {
	case e.dirty <- struct{}{}:
	default:
	}
	return nil
}

func (e *Engine) indexOf(productID string) int {
	for i, l := range e.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddLine merges quantity into an existing line or appends a new one.
// A non-positive quantity, or a merge past MaxQuantity, changes nothing and returns the error.
func (e *Engine) AddLine(c context.Context, productID string, quantity int) error {
	return e.mutate(c, "AddLine", func() (bool, error) {
		if err := (domain.Line{ProductID: productID, Quantity: quantity}).Validate(); err != nil {
			return false, err
		}
		if i := e.indexOf(productID); i >= 0 {
			merged, err := domain.AddQuantity(e.lines[i].Quantity, quantity)
			if err != nil {
				return false, err
			}
			e.lines[i].Quantity = merged
			return true, nil
		}
		e.lines = append(e.lines, domain.Line{ProductID: productID, Quantity: quantity})
		return true, nil
	})
}

// SetQuantity replaces a line's quantity, removing the line when quantity <= 0.
// Setting a positive quantity for an absent product is a no-op.
func (e *Engine) SetQuantity(c context.Context, productID string, quantity int) error {
	return e.mutate(c, "SetQuantity", func() (bool, error) {
		if productID == "" {
			return false, domain.ErrEmptyProductID
		}
		if quantity > domain.MaxQuantity {
			return false, domain.ErrQuantityTooLarge
		}
		i := e.indexOf(productID)
		if i < 0 {
			return false, nil
		}
		if quantity <= 0 {
			e.lines = append(e.lines[:i:i], e.lines[i+1:]...)
			return true, nil
		}
		if e.lines[i].Quantity == quantity {
			return false, nil
		}
		e.lines[i].Quantity = quantity
		return true, nil
	})
}

func (e *Engine) RemoveLine(c context.Context, productID string) error {
	return e.mutate(c, "RemoveLine", func() (bool, error) {
		i := e.indexOf(productID)
		if i < 0 {
			return false, nil
		}
		e.lines = append(e.lines[:i:i], e.lines[i+1:]...)
		return true, nil
	})
}

func (e *Engine) Clear(c context.Context) error {
	return e.mutate(c, "Clear", func() (bool, error) {
		e.lines = []domain.Line{}
		return true, nil
	})
}

// ReplaceAll discards the current cart in favour of lines. Invalid input leaves the cart untouched.
func (e *Engine) ReplaceAll(c context.Context, lines []domain.Line) error {
	return e.mutate(c, "ReplaceAll", func() (bool, error) {
		normalized, err := domain.Normalize(lines)
		if err != nil {
			return false, err
		}
		e.lines = normalized
		return true, nil
	})
}

func (e *Engine) Lines() []domain.Line {
	lines, _ := e.Snapshot()
	return lines
}

// Snapshot returns a copy of the lines together with the version they belong to.
func (e *Engine) Snapshot() ([]domain.Line, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lines := make([]domain.Line, len(e.lines))
	copy(lines, e.lines)
	return lines, e.version
}

func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

func (e *Engine) TotalItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.TotalQuantity(e.lines)
}

func (e *Engine) UniqueLineCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines)
}

func (e *Engine) IsEmpty() bool {
	return e.UniqueLineCount() == 0
}

// Flush writes the current state when it has not been saved yet. A failed write
// is logged and counted; the in-memory cart is kept and retried on the next flush.
func (e *Engine) Flush(c context.Context) error {
	c, span := otel.Tracer.Start(c, "Engine Flush")
	defer span.End()

	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	if e.version == e.savedVersion {
		e.mu.Unlock()
		return nil
	}
	lines := make([]domain.Line, len(e.lines))
	copy(lines, e.lines)
	version := e.version
	e.mu.Unlock()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Engine Flush").
		Str(log.KeySessionID, e.id.String()).
		Uint64(log.KeyCartVersion, version).
		Int(log.KeyCartLines, len(lines)).
		Logger()

	c = logger.WithContext(c)
	if err := e.store.Save(c, e.id, lines); err != nil {
		metrics.StoreFailures.WithLabelValues("save").Inc()
		err = fmt.Errorf("failed saving cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	metrics.StoreWrites.Inc()

	e.mu.Lock()
	if version > e.savedVersion {
		e.savedVersion = version
	}
	e.mu.Unlock()
	logger.Trace().Msg("saved cart")

	return nil
}

// Close stops the background writer and performs a final flush. Later mutations return ErrClosed.
func (e *Engine) Close(c context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.done)
	<-e.stopped
	return e.Flush(c)
}
