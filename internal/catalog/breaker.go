package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

type BreakerSettings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// BreakerResolver stops calling a failing resolver for a while instead of piling up timeouts.
type BreakerResolver struct {
	next Resolver
	cb   *gobreaker.CircuitBreaker[map[string]Product]
}

func NewBreakerResolver(c context.Context, next Resolver, s BreakerSettings) *BreakerResolver {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "BreakerResolver").Str("breaker", s.Name).Logger()

	failures := s.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	cb := gobreaker.NewCircuitBreaker[map[string]Product](gobreaker.Settings{
		Name:    s.Name,
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("product resolver breaker changed state")
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled) ||
				errors.Is(err, ErrBatchTooLarge) ||
				errors.Is(err, ErrInvalidProductID)
		},
	})
	return &BreakerResolver{next: next, cb: cb}
}

func (r *BreakerResolver) ResolveProducts(c context.Context, ids []string) (map[string]Product, error) {
	c, span := otel.Tracer.Start(c, "BreakerResolver ResolveProducts")
	defer span.End()

	products, err := r.cb.Execute(func() (map[string]Product, error) {
		return r.next.ResolveProducts(c, ids)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}
	if err != nil {
		otel.RecordError(err, span)
		return nil, err
	}
	return products, nil
}

func (r *BreakerResolver) State() gobreaker.State {
	return r.cb.State()
}
