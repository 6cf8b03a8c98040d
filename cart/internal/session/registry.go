package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Alturino/storefront/cart/internal/engine"
	"github.com/Alturino/storefront/cart/internal/metrics"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/share"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

var ErrRegistryClosed = errors.New("session registry is closed")

// Session is the live state of one visitor: the cart engine and its share flow.
type Session struct {
	ID     uuid.UUID
	Engine *engine.Engine
	Flow   *share.Flow

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry opens sessions lazily, keeps them in memory while used and flushes
// them out when idle.
type Registry struct {
	store store.Store
	opts  engine.Options
	idle  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	// closing holds sessions being flushed out; reopening waits for them.
	closing map[uuid.UUID]chan struct{}
	closed  bool

	group   singleflight.Group
	done    chan struct{}
	stopped chan struct{}
}

// NewRegistry starts the idle janitor when idle is positive.
func NewRegistry(c context.Context, st store.Store, opts engine.Options, idle time.Duration) *Registry {
	r := &Registry{
		store:    st,
		opts:     opts,
		idle:     idle,
		now:      time.Now,
		sessions: map[uuid.UUID]*Session{},
		closing:  map[uuid.UUID]chan struct{}{},
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	if idle <= 0 {
		close(r.stopped)
		return r
	}
	go r.janitor(context.WithoutCancel(c))
	return r
}

func (r *Registry) janitor(c context.Context) {
	defer close(r.stopped)

	interval := r.idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.Sweep(c)
		}
	}
}

// Get returns the session for id, loading its cart on first use. Concurrent first
// calls for the same id share one load.
func (r *Registry) Get(c context.Context, id uuid.UUID) (*Session, error) {
	c, span := otel.Tracer.Start(c, "Registry Get")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Registry Get").
		Str(log.KeySessionID, id.String()).
		Logger()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		s.touch(r.now())
		return s, nil
	}
	wait := r.closing[id]
	r.mu.Unlock()

	if wait != nil {
		logger.Trace().Msg("waiting for evicted session to flush")
		select {
		case <-wait:
		case <-c.Done():
			return nil, c.Err()
		}
	}

	open := context.WithoutCancel(logger.WithContext(c))
	v, err, shared := r.group.Do(id.String(), func() (interface{}, error) {
		r.mu.Lock()
		if s, ok := r.sessions[id]; ok {
			r.mu.Unlock()
			return s, nil
		}
		r.mu.Unlock()

		s := &Session{
			ID:       id,
			Engine:   engine.Open(open, id, r.store, r.opts),
			Flow:     share.NewFlow(),
			lastSeen: r.now(),
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			_ = s.Engine.Close(open)
			return nil, ErrRegistryClosed
		}
		r.sessions[id] = s
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
		r.mu.Unlock()

		logger.Debug().Msg("opened session")
		return s, nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		return nil, err
	}
	s := v.(*Session)
	if shared {
		s.touch(r.now())
	}
	return s, nil
}

// Do runs fn against the session for id. When the session was evicted between
// lookup and use, fn is retried once on a freshly opened session.
func (r *Registry) Do(c context.Context, id uuid.UUID, fn func(s *Session) error) error {
	for attempt := 0; ; attempt++ {
		s, err := r.Get(c, id)
		if err != nil {
			return err
		}
		err = fn(s)
		if errors.Is(err, engine.ErrClosed) && attempt == 0 {
			r.forget(s)
			continue
		}
		s.touch(r.now())
		return err
	}
}

func (r *Registry) forget(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[s.ID]; ok && current == s {
		delete(r.sessions, s.ID)
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
}

// Sweep closes sessions idle for longer than the idle timeout and reports how many it closed.
func (r *Registry) Sweep(c context.Context) int {
	c, span := otel.Tracer.Start(c, "Registry Sweep")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Registry Sweep").Logger()

	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)
	// a shared cart awaiting confirmation keeps its session for one more idle period
	pendingCutoff := cutoff.Add(-r.idle)

	r.mu.Lock()
	evicted := make([]*Session, 0)
	for id, s := range r.sessions {
		limit := cutoff
		if s.Flow.State() == share.PendingConfirmation {
			limit = pendingCutoff
		}
		if s.LastSeen().After(limit) {
			continue
		}
		delete(r.sessions, id)
		r.closing[id] = make(chan struct{})
		evicted = append(evicted, s)
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range evicted {
		if err := s.Engine.Close(c); err != nil {
			err = fmt.Errorf("failed flushing idle session with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Str(log.KeySessionID, s.ID.String()).Msg(err.Error())
		}
		r.mu.Lock()
		close(r.closing[s.ID])
		delete(r.closing, s.ID)
		r.mu.Unlock()
	}
	if len(evicted) > 0 {
		logger.Debug().Int("evicted", len(evicted)).Msg("evicted idle sessions")
	}
	return len(evicted)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the janitor and closes every session with a final flush.
func (r *Registry) Close(c context.Context) error {
	c, span := otel.Tracer.Start(c, "Registry Close")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Registry Close").Logger()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = map[uuid.UUID]*Session{}
	metrics.ActiveSessions.Set(0)
	r.mu.Unlock()

	close(r.done)
	<-r.stopped

	logger.Info().Int("sessions", len(sessions)).Msg("closing sessions")
	var errs []error
	for _, s := range sessions {
		if err := s.Engine.Close(c); err != nil {
			errs = append(errs, fmt.Errorf("failed closing session=%s with error=%w", s.ID, err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	return err
}
