package request

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultRecentCount = 3

type FindProducts struct {
	IDs []string `validate:"required,min=1,max=30,dive,required"`
}

// ParseIDs splits a comma separated ids query value, dropping blanks.
func ParseIDs(raw string) []string {
	ids := []string{}
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

type SetPopular struct {
	ProductIDs []string `validate:"required,len=3,unique,dive,required" json:"productIds"`
}

type ListProducts struct {
	// Limit 0 lists every product.
	Limit int `validate:"gte=0,lte=100"`
}

type RecentProducts struct {
	Limit int `validate:"gte=0,lte=30"`
}

// ParseLimit reads an optional limit query value; blank means 0.
func ParseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed parsing limit=%s with error=%w", raw, err)
	}
	return limit, nil
}
