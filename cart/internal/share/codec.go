package share

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Alturino/storefront/cart/internal/domain"
)

const (
	// Param is the query parameter carrying a shared cart token.
	Param = "sharedItems"

	lineSeparator  = ","
	fieldSeparator = "_"
	cartPath       = "/cart"
)

var (
	ErrUnencodableProductID = errors.New("productId contains a share token delimiter")
	ErrEmptyCart            = errors.New("cannot share an empty cart")
)

// DecodeError reports the first malformed entry of a shared cart token.
type DecodeError struct {
	Position int
	Entry    string
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid shared cart entry %d %q: %s", e.Position, e.Entry, e.Reason)
}

// Encode joins productId_quantity pairs with commas. Product ids holding a delimiter are refused.
func Encode(lines []domain.Line) (string, error) {
	parts := make([]string, 0, len(lines))
	for i, l := range lines {
		if err := l.Validate(); err != nil {
			return "", &domain.ValidationError{Index: i, ProductID: l.ProductID, Err: err}
		}
		if strings.Contains(l.ProductID, lineSeparator) || strings.Contains(l.ProductID, fieldSeparator) {
			return "", &domain.ValidationError{Index: i, ProductID: l.ProductID, Err: ErrUnencodableProductID}
		}
		parts = append(parts, l.ProductID+fieldSeparator+strconv.Itoa(l.Quantity))
	}
	return strings.Join(parts, lineSeparator), nil
}

// Decode is all-or-nothing: one malformed entry rejects the whole token.
func Decode(token string) ([]domain.Line, error) {
	if token == "" {
		return []domain.Line{}, nil
	}
	entries := strings.Split(token, lineSeparator)
	lines := make([]domain.Line, 0, len(entries))
	for i, entry := range entries {
		fields := strings.Split(entry, fieldSeparator)
		if len(fields) != 2 {
			return nil, &DecodeError{Position: i, Entry: entry, Reason: "expected productId_quantity"}
		}
		if fields[0] == "" {
			return nil, &DecodeError{Position: i, Entry: entry, Reason: "empty productId"}
		}
		quantity, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil || quantity < 1 {
			return nil, &DecodeError{Position: i, Entry: entry, Reason: "quantity is not a positive integer"}
		}
		line := domain.Line{ProductID: fields[0], Quantity: int(quantity)}
		if err := line.Validate(); err != nil {
			return nil, &DecodeError{Position: i, Entry: entry, Reason: err.Error()}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Link builds the absolute cart URL that loads lines through the share flow.
func Link(baseURL string, lines []domain.Line) (string, error) {
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}
	token, err := Encode(lines)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed parsing share base url with error=%w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + cartPath
	u.RawQuery = url.Values{Param: []string{token}}.Encode()
	return u.String(), nil
}
