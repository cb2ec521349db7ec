package gacha

import "fmt"

// Item is an item template. Clone must return an independent deep copy so that
// results never alias catalog entries.
type Item[T any] interface {
	Clone() T
	DisplayName() string
}

// Catalog maps rarity to item templates. The core only reads it.
type Catalog[R Tier, T any] interface {
	Items(rarity R) []T
}

// CatalogMap is the simplest Catalog, handy for tests and static pools.
type CatalogMap[R Tier, T any] map[R][]T

func (m CatalogMap[R, T]) Items(rarity R) []T { return m[rarity] }

// Fallback describes a substitution made because the requested pool was empty.
type Fallback[R Tier] struct {
	Requested   R
	Substituted R
}

func (f Fallback[R]) String() string {
	return fmt.Sprintf("pool %v empty, substituted %v", f.Requested, f.Substituted)
}

// Resolver turns a rarity into a concrete item copy.
type Resolver[R Tier, T Item[T]] struct {
	Table   *RateTable[R]
	Catalog Catalog[R, T]
	RNG     RandomSource
}

// Resolve picks uniformly from catalog[rarity]. If that pool is empty it walks
// the configured tiers in declaration order and uses the first non-empty pool,
// reporting the substitution. Every pool empty => ErrNoItemsAvailable.
func (rs *Resolver[R, T]) Resolve(rarity R) (T, *Fallback[R], error) {
	if pool := rs.Catalog.Items(rarity); len(pool) > 0 {
		return pool[pickIndex(rs.RNG, len(pool))].Clone(), nil, nil
	}
	for _, e := range rs.Table.declared {
		if e.Rarity == rarity {
			continue
		}
		pool := rs.Catalog.Items(e.Rarity)
		if len(pool) == 0 {
			continue
		}
		fb := &Fallback[R]{Requested: rarity, Substituted: e.Rarity}
		return pool[pickIndex(rs.RNG, len(pool))].Clone(), fb, nil
	}
	var zero T
	return zero, nil, fmt.Errorf("resolve %v: %w", rarity, ErrNoItemsAvailable)
}
