package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MaxBatch is the largest id set a single lookup may carry; the document store's
// "in" query refuses more.
const MaxBatch = 30

var (
	ErrBatchTooLarge = errors.New("too many product ids in one lookup")
	ErrUnavailable   = errors.New("product catalog unavailable")
)

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	DataAIHint  string          `json:"dataAiHint,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Resolver looks up products by id. The result holds only the ids that exist, in no
// particular order; callers re-order by their own id sequence.
type Resolver interface {
	ResolveProducts(c context.Context, ids []string) (map[string]Product, error)
}

// Ordered re-orders resolved products by ids, skipping unresolved ones.
func Ordered(ids []string, products map[string]Product) []Product {
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := products[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
