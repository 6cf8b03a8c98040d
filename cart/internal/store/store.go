package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Alturino/storefront/cart/internal/domain"
)

// KeyPrefix namespaces the single slot each session's cart is stored under.
const KeyPrefix = "app-cart"

var ErrCorrupt = errors.New("stored cart is corrupt")

// Store persists whole carts. Load returns nil lines and no error when nothing is stored.
type Store interface {
	Load(c context.Context, sessionID uuid.UUID) ([]domain.Line, error)
	Save(c context.Context, sessionID uuid.UUID, lines []domain.Line) error
	Delete(c context.Context, sessionID uuid.UUID) error
}

func Key(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", KeyPrefix, sessionID.String())
}

func Marshal(lines []domain.Line) ([]byte, error) {
	if lines == nil {
		lines = []domain.Line{}
	}
	return json.Marshal(lines)
}

// Unmarshal rejects undecodable payloads and payloads holding invalid lines with ErrCorrupt.
func Unmarshal(data []byte) ([]domain.Line, error) {
	lines := []domain.Line{}
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, err.Error())
	}
	lines, err := domain.Normalize(lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, err.Error())
	}
	return lines, nil
}
