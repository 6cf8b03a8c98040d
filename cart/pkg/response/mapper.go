package response

import (
	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/share"
	"github.com/Alturino/storefront/cart/internal/view"
)

func FromView(v view.View, flow *share.Flow) Cart {
	return Cart{View: v, Share: ShareFromFlow(flow)}
}

func ShareFromFlow(flow *share.Flow) Share {
	pending, token, ok := flow.Pending()
	if !ok {
		return Share{State: flow.State()}
	}
	return Share{State: share.PendingConfirmation, Token: token, Pending: pending}
}

func SummaryOf(lines []domain.Line, version uint64) Summary {
	return Summary{
		ItemCount:   domain.TotalQuantity(lines),
		UniqueCount: len(lines),
		Empty:       len(lines) == 0,
		Version:     version,
	}
}
