package gacha

import (
	"errors"
	"strings"
)

var (
	// ErrNoItemsAvailable means no pool for any configured rarity has items.
	// It is fatal for the pull and for the rest of a batch.
	ErrNoItemsAvailable = errors.New("no items available in any rarity pool")

	ErrInvalidBatchSize = errors.New("batch size must be >= 1")
	ErrInvalidWeight    = errors.New("invalid weight; must be finite and >= 0")
)

// ConfigError reports every problem found in a rate table or pity config.
// An engine is never built from a config that produced one.
type ConfigError struct {
	Reasons []string
}

func (e *ConfigError) Error() string {
	return "gacha config invalid: " + strings.Join(e.Reasons, "; ")
}

func (e *ConfigError) add(reason string) {
	e.Reasons = append(e.Reasons, reason)
}

// orNil returns e only when it carries reasons.
func (e *ConfigError) orNil() error {
	if len(e.Reasons) == 0 {
		return nil
	}
	return e
}
