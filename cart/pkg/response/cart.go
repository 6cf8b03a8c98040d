package response

import (
	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/share"
	"github.com/Alturino/storefront/cart/internal/view"
)

type Cart struct {
	view.View
	Share Share `json:"share"`
}

type Share struct {
	State   share.State   `json:"state"`
	Token   string        `json:"token,omitempty"`
	Pending []domain.Line `json:"pending,omitempty"`
}

type Summary struct {
	ItemCount   int    `json:"itemCount"`
	UniqueCount int    `json:"uniqueCount"`
	Empty       bool   `json:"empty"`
	Version     uint64 `json:"version"`
}

type ShareLink struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}
