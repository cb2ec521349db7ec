package items

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/idle-gacha/internal/gacha"
)

type record interface {
	rarityName() string
}

// Pool is an in-memory catalog. Replace swaps the whole item set, so slices
// returned by Items are never mutated afterwards.
type Pool[T gacha.Item[T]] struct {
	mu       sync.RWMutex
	byRarity map[gacha.Rarity][]T
}

func NewPool[T gacha.Item[T]](byRarity map[gacha.Rarity][]T) *Pool[T] {
	p := &Pool[T]{}
	p.Replace(byRarity)
	return p
}

// Items implements gacha.Catalog.
func (p *Pool[T]) Items(r gacha.Rarity) []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byRarity[r]
}

func (p *Pool[T]) Replace(byRarity map[gacha.Rarity][]T) {
	if byRarity == nil {
		byRarity = map[gacha.Rarity][]T{}
	}
	p.mu.Lock()
	p.byRarity = byRarity
	p.mu.Unlock()
}

// Counts reports the pool size per rarity.
func (p *Pool[T]) Counts() map[gacha.Rarity]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[gacha.Rarity]int, len(p.byRarity))
	for r, list := range p.byRarity {
		out[r] = len(list)
	}
	return out
}

type catalogFile[T any] struct {
	Items []T `yaml:"items"`
}

// LoadCatalog reads an items.yaml file and groups its items by rarity,
// keeping file order within each rarity. A missing file is an empty catalog.
func LoadCatalog[T interface {
	gacha.Item[T]
	record
}](path string) (map[gacha.Rarity][]T, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[gacha.Rarity][]T{}, nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile[T]
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	out := make(map[gacha.Rarity][]T)
	for i, it := range f.Items {
		r, err := gacha.ParseRarity(it.rarityName())
		if err != nil {
			return nil, fmt.Errorf("catalog %s: items[%d] %q: %w", path, i, it.DisplayName(), err)
		}
		out[r] = append(out[r], it)
	}
	return out, nil
}
