package infra

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const countAlias = "all"

// FirestoreCounter counts documents server side without reading them.
type FirestoreCounter struct {
	client *firestore.Client
}

func NewFirestoreCounter(client *firestore.Client) FirestoreCounter {
	return FirestoreCounter{client: client}
}

func (f FirestoreCounter) Count(c context.Context, collection string) (int64, error) {
	c, span := otel.Tracer.Start(c, "FirestoreCounter Count")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "FirestoreCounter Count").
		Str("collection", collection).
		Str(log.KeyProcess, "counting documents").
		Logger()

	logger.Trace().Msg("counting documents")
	result, err := f.client.Collection(collection).NewAggregationQuery().WithCount(countAlias).Get(c)
	if err != nil {
		err = fmt.Errorf("failed counting documents with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	value, ok := result[countAlias].(*firestorepb.Value)
	if !ok {
		err = fmt.Errorf("failed counting documents with error=unexpected aggregation result %T", result[countAlias])
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	logger.Trace().Int64("count", value.GetIntegerValue()).Msg("counted documents")

	return value.GetIntegerValue(), nil
}
