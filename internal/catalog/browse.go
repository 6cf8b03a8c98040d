package catalog

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

var ErrProductNotFound = errors.New("product not found")

// Browser lists the catalogue instead of looking products up by id.
type Browser interface {
	// ListProducts orders by title; limit <= 0 returns every product.
	ListProducts(c context.Context, limit int) ([]Product, error)
	// RecentProducts returns the newest products first.
	RecentProducts(c context.Context, limit int) ([]Product, error)
}

// FindProduct resolves a single product through r.
func FindProduct(c context.Context, r Resolver, id string) (Product, error) {
	if ValidateProductID(id) != nil {
		return Product{}, ErrProductNotFound
	}
	products, err := r.ResolveProducts(c, []string{id})
	if err != nil {
		return Product{}, err
	}
	p, ok := products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *FirestoreResolver) ListProducts(c context.Context, limit int) ([]Product, error) {
	c, span := otel.Tracer.Start(c, "FirestoreResolver ListProducts")
	defer span.End()

	q := r.client.Collection(ProductsCollection).OrderBy("title", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	products, err := r.query(c, "FirestoreResolver ListProducts", q)
	if err != nil {
		otel.RecordError(err, span)
		return nil, err
	}
	return products, nil
}

func (r *FirestoreResolver) RecentProducts(c context.Context, limit int) ([]Product, error) {
	c, span := otel.Tracer.Start(c, "FirestoreResolver RecentProducts")
	defer span.End()

	q := r.client.Collection(ProductsCollection).OrderBy("createdAt", firestore.Desc).Limit(limit)
	products, err := r.query(c, "FirestoreResolver RecentProducts", q)
	if err != nil {
		otel.RecordError(err, span)
		return nil, err
	}
	return products, nil
}

func (r *FirestoreResolver) query(c context.Context, tag string, q firestore.Query) ([]Product, error) {
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, tag).
		Str(log.KeyProcess, "querying product documents").
		Logger()

	logger.Trace().Msg("querying product documents")
	snaps, err := q.Documents(c).GetAll()
	if err != nil {
		err = fmt.Errorf("failed querying product documents with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	products := make([]Product, 0, len(snaps))
	for _, snap := range snaps {
		doc := productDocument{}
		if err := snap.DataTo(&doc); err != nil {
			logger.Warn().Err(err).Str(log.KeyProductID, snap.Ref.ID).Msg("skipping undecodable product")
			continue
		}
		products = append(products, doc.product(snap.Ref.ID))
	}
	logger.Trace().Int(log.KeyResolvedCount, len(products)).Msg("queried product documents")

	return products, nil
}
