package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedis stores carts as JSON strings; a ttl of zero keeps them forever.
func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Load(c context.Context, sessionID uuid.UUID) ([]domain.Line, error) {
	c, span := otel.Tracer.Start(c, "Redis Load")
	defer span.End()

	key := Key(sessionID)
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Redis Load").
		Str(log.KeyCacheKey, key).
		Logger()

	logger.Trace().Msg("getting cart")
	data, err := r.client.Get(c, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Trace().Msg("cart not found")
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed getting cart key=%s with error=%w", key, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	lines, err := Unmarshal(data)
	if err != nil {
		inOtel.RecordError(err, span)
		return nil, err
	}
	logger.Trace().Int(log.KeyCartLines, len(lines)).Msg("got cart")

	return lines, nil
}

func (r *Redis) Save(c context.Context, sessionID uuid.UUID, lines []domain.Line) error {
	c, span := otel.Tracer.Start(c, "Redis Save")
	defer span.End()

	key := Key(sessionID)
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Redis Save").
		Str(log.KeyCacheKey, key).
		Int(log.KeyCartLines, len(lines)).
		Logger()

	data, err := Marshal(lines)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}

	logger.Trace().Msg("setting cart")
	if err = r.client.Set(c, key, data, r.ttl).Err(); err != nil {
		err = fmt.Errorf("failed setting cart key=%s with error=%w", key, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("set cart")

	return nil
}

func (r *Redis) Delete(c context.Context, sessionID uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "Redis Delete")
	defer span.End()

	key := Key(sessionID)
	if err := r.client.Del(c, key).Err(); err != nil {
		err = fmt.Errorf("failed deleting cart key=%s with error=%w", key, err)
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyTag, "Redis Delete").Msg(err.Error())
		return err
	}
	return nil
}
