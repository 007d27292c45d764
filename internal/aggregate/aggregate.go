// Package aggregate computes order totals for a batch of validated line items.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// NetworkSubtotal groups the items of one network.
type NetworkSubtotal struct {
	Network   types.Network
	ItemCount int
	Subtotal  decimal.Decimal
	Items     []types.OrderLineItem
}

// Summary is the aggregate view of a batch.
type Summary struct {
	ItemCount  int
	TotalPrice decimal.Decimal
	ByNetwork  []NetworkSubtotal
}

// Aggregate sums the unit prices of items. Each item is one bundle, so prices
// are never multiplied by a quantity. Networks appear in the order they are
// first seen and items keep their input order inside each group.
func Aggregate(items []types.OrderLineItem) Summary {
	s := Summary{
		ItemCount:  len(items),
		TotalPrice: decimal.Zero,
		ByNetwork:  []NetworkSubtotal{},
	}

	index := make(map[types.Network]int)

	for _, item := range items {
		s.TotalPrice = s.TotalPrice.Add(item.UnitPrice)

		i, ok := index[item.Network]
		if !ok {
			i = len(s.ByNetwork)
			index[item.Network] = i
			s.ByNetwork = append(s.ByNetwork, NetworkSubtotal{Network: item.Network, Subtotal: decimal.Zero})
		}

		group := &s.ByNetwork[i]
		group.ItemCount++
		group.Subtotal = group.Subtotal.Add(item.UnitPrice)
		group.Items = append(group.Items, item)
	}

	s.TotalPrice = s.TotalPrice.Round(2)
	for i := range s.ByNetwork {
		s.ByNetwork[i].Subtotal = s.ByNetwork[i].Subtotal.Round(2)
	}

	return s
}
