// Package catalog holds the price list a composer session validates against.
//
// A Catalog is bound to a single network and is immutable once built: line
// items copy their price out of it, so nothing that happens to the catalog
// afterwards can change an already validated batch.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/unlimiteddatagh/bulkorder/internal/config"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// Catalog maps bundle capacities to priced entries for one network.
type Catalog struct {
	network    types.Network
	byCapacity map[int]types.PriceCatalogEntry
	entries    []types.PriceCatalogEntry
}

// New builds a catalog for network from entries. Entries are sorted by
// capacity. Duplicate capacities, non-positive capacities, negative prices and
// entries of another network are rejected.
func New(network types.Network, entries []types.PriceCatalogEntry) (*Catalog, error) {
	c := &Catalog{
		network:    network,
		byCapacity: make(map[int]types.PriceCatalogEntry, len(entries)),
		entries:    make([]types.PriceCatalogEntry, 0, len(entries)),
	}

	for _, e := range entries {
		if e.Network != network {
			return nil, fmt.Errorf("entry %dGB belongs to %s, not %s", e.CapacityGB, e.Network, network)
		}
		if e.CapacityGB <= 0 {
			return nil, fmt.Errorf("entry capacity must be positive, got %d", e.CapacityGB)
		}
		if e.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("entry %dGB has negative price %s", e.CapacityGB, e.UnitPrice)
		}
		if _, dup := c.byCapacity[e.CapacityGB]; dup {
			return nil, fmt.Errorf("duplicate entry for %dGB on %s", e.CapacityGB, network)
		}

		e.UnitPrice = e.UnitPrice.Round(2)
		c.byCapacity[e.CapacityGB] = e
		c.entries = append(c.entries, e)
	}

	sort.Slice(c.entries, func(i, j int) bool {
		return c.entries[i].CapacityGB < c.entries[j].CapacityGB
	})

	return c, nil
}

// Network returns the carrier this catalog prices.
func (c *Catalog) Network() types.Network {
	return c.network
}

// Len returns the number of bundles.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the bundles, smallest first.
func (c *Catalog) Entries() []types.PriceCatalogEntry {
	out := make([]types.PriceCatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds the bundle named by a capacity token. The token must consist of
// ASCII digits only; "5" and "05" both name the 5GB bundle, "5GB" names none.
func (c *Catalog) Lookup(token string) (types.PriceCatalogEntry, bool) {
	capacity, ok := parseCapacity(token)
	if !ok {
		return types.PriceCatalogEntry{}, false
	}
	e, ok := c.byCapacity[capacity]
	return e, ok
}

// parseCapacity converts an all-digit token to an int, rejecting overflow.
func parseCapacity(token string) (int, bool) {
	if token == "" || len(token) > 9 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(token); i++ {
		ch := token[i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int(ch-'0')
	}
	return n, true
}

// =============================================================================
// LOADING
// =============================================================================

// Source fetches the full remote price list, across all networks.
type Source interface {
	GetCatalog(ctx context.Context) ([]types.PriceCatalogEntry, error)
}

// Load builds the session catalog from configuration. Static entries are used
// when cfg.Source is "static"; otherwise the remote list is fetched and
// filtered to network.
func Load(ctx context.Context, cfg config.CatalogConfig, network types.Network, remote Source) (*Catalog, error) {
	switch cfg.Source {
	case "static":
		entries, err := staticEntries(cfg.Entries, network)
		if err != nil {
			return nil, err
		}
		return New(network, entries)

	case "remote", "":
		if remote == nil {
			return nil, fmt.Errorf("remote catalog requested but no source configured")
		}
		all, err := remote.GetCatalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog: %w", err)
		}
		return New(network, filterNetwork(all, network))

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}

// staticEntries converts configured rows, keeping those of the session network.
func staticEntries(rows []config.CatalogEntryConfig, network types.Network) ([]types.PriceCatalogEntry, error) {
	entries := make([]types.PriceCatalogEntry, 0, len(rows))

	for i, row := range rows {
		entryNetwork := network
		if row.Network != "" {
			parsed, err := types.ParseNetwork(row.Network)
			if err != nil {
				return nil, fmt.Errorf("catalog entry %d: %w", i, err)
			}
			entryNetwork = parsed
		}
		if entryNetwork != network {
			continue
		}

		price, err := decimal.NewFromString(row.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: invalid unit price %q: %w", i, row.UnitPrice, err)
		}

		entries = append(entries, types.PriceCatalogEntry{
			CapacityGB: row.CapacityGB,
			Network:    entryNetwork,
			UnitPrice:  price,
		})
	}

	return entries, nil
}

func filterNetwork(all []types.PriceCatalogEntry, network types.Network) []types.PriceCatalogEntry {
	out := make([]types.PriceCatalogEntry, 0, len(all))
	for _, e := range all {
		if e.Network == network {
			out = append(out, e)
		}
	}
	return out
}
