package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

const (
	queryLoadCart   = `select lines from carts where session_id = $1`
	querySaveCart   = `insert into carts (session_id, lines, updated_at) values ($1, $2, now()) on conflict (session_id) do update set lines = excluded.lines, updated_at = now()`
	queryDeleteCart = `delete from carts where session_id = $1`
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Load(c context.Context, sessionID uuid.UUID) ([]domain.Line, error) {
	c, span := otel.Tracer.Start(c, "Postgres Load")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Postgres Load").
		Str(log.KeySessionID, sessionID.String()).
		Logger()

	var data []byte
	err := p.pool.QueryRow(c, queryLoadCart, sessionID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Trace().Msg("cart not found")
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed selecting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	lines, err := Unmarshal(data)
	if err != nil {
		inOtel.RecordError(err, span)
		return nil, err
	}
	return lines, nil
}

func (p *Postgres) Save(c context.Context, sessionID uuid.UUID, lines []domain.Line) error {
	c, span := otel.Tracer.Start(c, "Postgres Save")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Postgres Save").
		Str(log.KeySessionID, sessionID.String()).
		Int(log.KeyCartLines, len(lines)).
		Logger()

	data, err := Marshal(lines)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}

	if _, err = p.pool.Exec(c, querySaveCart, sessionID, data); err != nil {
		err = fmt.Errorf("failed upserting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("upserted cart")

	return nil
}

func (p *Postgres) Delete(c context.Context, sessionID uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "Postgres Delete")
	defer span.End()

	if _, err := p.pool.Exec(c, queryDeleteCart, sessionID); err != nil {
		err = fmt.Errorf("failed deleting cart with error=%w", err)
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyTag, "Postgres Delete").Msg(err.Error())
		return err
	}
	return nil
}
