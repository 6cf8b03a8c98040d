package catalog

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const ProductsCollection = "products"

type productDocument struct {
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	ImageURL    string    `firestore:"imageUrl"`
	DataAIHint  string    `firestore:"dataAiHint,omitempty"`
	Price       float64   `firestore:"price"`
	Currency    string    `firestore:"currency,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func (d productDocument) product(id string) Product {
	return Product{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		DataAIHint:  d.DataAIHint,
		Price:       decimal.NewFromFloat(d.Price),
		Currency:    d.Currency,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type FirestoreResolver struct {
	client *firestore.Client
}

func NewFirestoreResolver(client *firestore.Client) *FirestoreResolver {
	return &FirestoreResolver{client: client}
}

// ResolveProducts reads every requested product document in one batched round trip.
func (r *FirestoreResolver) ResolveProducts(c context.Context, ids []string) (map[string]Product, error) {
	c, span := otel.Tracer.Start(c, "FirestoreResolver ResolveProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "FirestoreResolver ResolveProducts").
		Strs(log.KeyProductIDs, ids).
		Logger()

	if len(ids) == 0 {
		return map[string]Product{}, nil
	}
	if len(ids) > MaxBatch {
		err := fmt.Errorf("%w: got=%d max=%d", ErrBatchTooLarge, len(ids), MaxBatch)
		otel.RecordError(err, span)
		return nil, err
	}

	valid, invalid := splitValidIDs(ids)
	if len(invalid) > 0 {
		logger.Warn().Strs(log.KeyInvalidIDs, invalid).Msg("skipping invalid product ids")
	}
	if len(valid) == 0 {
		return map[string]Product{}, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(valid))
	for _, id := range valid {
		refs = append(refs, r.client.Collection(ProductsCollection).Doc(id))
	}

	logger = logger.With().Str(log.KeyProcess, "getting product documents").Logger()
	logger.Trace().Msg("getting product documents")
	snaps, err := r.client.GetAll(c, refs)
	if err != nil {
		err = fmt.Errorf("failed getting product documents with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	products := make(map[string]Product, len(snaps))
	for _, snap := range snaps {
		if snap == nil || !snap.Exists() {
			continue
		}
		doc := productDocument{}
		if err := snap.DataTo(&doc); err != nil {
			logger.Warn().Err(err).Str(log.KeyProductID, snap.Ref.ID).Msg("skipping undecodable product")
			continue
		}
		products[snap.Ref.ID] = doc.product(snap.Ref.ID)
	}
	logger.Trace().Int(log.KeyResolvedCount, len(products)).Msg("got product documents")

	return products, nil
}
