package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const (
	PopularCount = 3

	siteManagementCollection = "siteManagement"
	homeProductsDocument     = "homeProd"
)

var (
	ErrPopularNotConfigured  = errors.New("no popular products are configured")
	ErrPopularMisconfigured  = errors.New("popular products are misconfigured")
	ErrInvalidPopularProduct = errors.New("invalid popular product selection")
)

// PopularStore keeps the curated, ordered popular product ids.
type PopularStore interface {
	PopularIDs(c context.Context) ([]string, error)
	SetPopularIDs(c context.Context, ids []string) error
}

type homeProductsDoc struct {
	PopularProductIDs []string  `firestore:"popularProductIds"`
	UpdatedAt         time.Time `firestore:"updatedAt,omitempty"`
}

type FirestorePopularStore struct {
	client *firestore.Client
}

func NewFirestorePopularStore(client *firestore.Client) *FirestorePopularStore {
	return &FirestorePopularStore{client: client}
}

func (s *FirestorePopularStore) PopularIDs(c context.Context) ([]string, error) {
	c, span := otel.Tracer.Start(c, "FirestorePopularStore PopularIDs")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "FirestorePopularStore PopularIDs").Logger()

	snap, err := s.client.Collection(siteManagementCollection).Doc(homeProductsDocument).Get(c)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed getting popular products settings with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	doc := homeProductsDoc{}
	if err = snap.DataTo(&doc); err != nil {
		err = fmt.Errorf("failed decoding popular products settings with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return doc.PopularProductIDs, nil
}

func (s *FirestorePopularStore) SetPopularIDs(c context.Context, ids []string) error {
	c, span := otel.Tracer.Start(c, "FirestorePopularStore SetPopularIDs")
	defer span.End()

	_, err := s.client.Collection(siteManagementCollection).Doc(homeProductsDocument).Set(c, map[string]interface{}{
		"popularProductIds": ids,
		"updatedAt":         firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		err = fmt.Errorf("failed saving popular products settings with error=%w", err)
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyTag, "FirestorePopularStore SetPopularIDs").Msg(err.Error())
		return err
	}
	return nil
}

// ResolvePopular returns the configured popular products in their configured order.
// Anything but exactly PopularCount resolvable products is a misconfiguration.
func ResolvePopular(c context.Context, store PopularStore, resolver Resolver) ([]Product, error) {
	c, span := otel.Tracer.Start(c, "ResolvePopular")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ResolvePopular").Logger()

	ids, err := store.PopularIDs(c)
	if err != nil {
		otel.RecordError(err, span)
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrPopularNotConfigured
	}
	if len(ids) != PopularCount {
		err = fmt.Errorf("%w: expected=%d found=%d", ErrPopularMisconfigured, PopularCount, len(ids))
		otel.RecordError(err, span)
		logger.Warn().Err(err).Strs(log.KeyProductIDs, ids).Msg(err.Error())
		return nil, err
	}

	products, err := resolver.ResolveProducts(c, ids)
	if err != nil {
		otel.RecordError(err, span)
		return nil, err
	}
	ordered := Ordered(ids, products)
	if len(ordered) != PopularCount {
		err = fmt.Errorf("%w: resolved=%d of %d", ErrPopularMisconfigured, len(ordered), PopularCount)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Strs(log.KeyProductIDs, ids).Msg(err.Error())
		return nil, err
	}
	return ordered, nil
}

// SetPopular validates and stores a new ordered selection of exactly PopularCount existing products.
func SetPopular(c context.Context, store PopularStore, resolver Resolver, ids []string) error {
	c, span := otel.Tracer.Start(c, "SetPopular")
	defer span.End()

	if len(ids) != PopularCount {
		return fmt.Errorf("%w: exactly %d products required", ErrInvalidPopularProduct, PopularCount)
	}
	seen := map[string]struct{}{}
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: empty product id", ErrInvalidPopularProduct)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate product id=%s", ErrInvalidPopularProduct, id)
		}
		seen[id] = struct{}{}
	}

	products, err := resolver.ResolveProducts(c, ids)
	if err != nil {
		otel.RecordError(err, span)
		return err
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return fmt.Errorf("%w: unknown product id=%s", ErrInvalidPopularProduct, id)
		}
	}

	if err = store.SetPopularIDs(c, ids); err != nil {
		otel.RecordError(err, span)
		return err
	}
	return nil
}
