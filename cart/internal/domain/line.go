package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/Alturino/storefront/internal/catalog"
)

// MaxQuantity bounds a line's quantity so it survives every encoding of a cart,
// including the 32-bit share token.
const MaxQuantity = math.MaxInt32

var (
	ErrEmptyProductID      = errors.New("productId must not be empty")
	ErrNonPositiveQuantity = errors.New("quantity must be a positive integer")
	ErrQuantityTooLarge    = fmt.Errorf("quantity must not exceed %d", MaxQuantity)
	ErrInvalidProductID    = catalog.ErrInvalidProductID
)

// Line is one product entry of a cart. A cart never holds two lines with the same ProductID.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ValidationError struct {
	Index     int
	ProductID string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid line at index=%d productId=%q: %s", e.Index, e.ProductID, e.Err.Error())
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (l Line) Validate() error {
	if l.ProductID == "" {
		return ErrEmptyProductID
	}
	if err := catalog.ValidateProductID(l.ProductID); err != nil {
		return err
	}
	if l.Quantity < 1 {
		return ErrNonPositiveQuantity
	}
	if l.Quantity > MaxQuantity {
		return ErrQuantityTooLarge
	}
	return nil
}

// AddQuantity sums two valid quantities, refusing results above MaxQuantity.
func AddQuantity(current, delta int) (int, error) {
	if delta > MaxQuantity-current {
		return current, ErrQuantityTooLarge
	}
	return current + delta, nil
}

// Normalize validates lines and merges repeated product ids into their first occurrence.
func Normalize(lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	index := make(map[string]int, len(lines))
	for i, l := range lines {
		if err := l.Validate(); err != nil {
			return nil, &ValidationError{Index: i, ProductID: l.ProductID, Err: err}
		}
		if j, ok := index[l.ProductID]; ok {
			quantity, err := AddQuantity(out[j].Quantity, l.Quantity)
			if err != nil {
				return nil, &ValidationError{Index: i, ProductID: l.ProductID, Err: err}
			}
			out[j].Quantity = quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// UniqueIDs returns product ids in first-seen order.
func UniqueIDs(lines []Line) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

func TotalQuantity(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}
