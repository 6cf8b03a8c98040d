package catalog

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxIDBytes is the longest document id the product store accepts.
const MaxIDBytes = 1500

var ErrInvalidProductID = errors.New("productId is not a valid product document id")

// ValidateProductID reports whether id can name a product document: valid UTF-8, at most
// MaxIDBytes, no "/", not "." or "..", and not of the reserved form __name__.
func ValidateProductID(id string) error {
	switch {
	case id == "", id == ".", id == "..":
		return ErrInvalidProductID
	case len(id) > MaxIDBytes, !utf8.ValidString(id):
		return ErrInvalidProductID
	case strings.Contains(id, "/"):
		return ErrInvalidProductID
	case len(id) >= 4 && strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__"):
		return ErrInvalidProductID
	}
	return nil
}

// splitValidIDs separates ids the product store can look up from those it would reject.
func splitValidIDs(ids []string) (valid []string, invalid []string) {
	valid = make([]string, 0, len(ids))
	for _, id := range ids {
		if ValidateProductID(id) != nil {
			invalid = append(invalid, id)
			continue
		}
		valid = append(valid, id)
	}
	return valid, invalid
}
