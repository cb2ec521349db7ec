package banner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Paths helper for default/banner/catalog files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/config
}

func (p Paths) BannerDir() string {
	return filepath.Join(p.BaseDir, "banners")
}
func (p Paths) DefaultPath() string {
	return filepath.Join(p.BannerDir(), "default.yaml")
}
func (p Paths) BannerPath(name string) string {
	return filepath.Join(p.BannerDir(), name+".yaml")
}
func (p Paths) CatalogPath(name string) string {
	return filepath.Join(p.BannerDir(), name, "items.yaml")
}

// Loader reads YAML configs and merges default → banner.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: banner name
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

func (l *Loader) Paths() Paths { return l.paths }

// Names lists the banners found in the banner directory, sorted.
func (l *Loader) Names() ([]string, error) {
	entries, err := os.ReadDir(l.paths.BannerDir())
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".yaml" || name == "default.yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".yaml"))
	}
	slices.Sort(names)
	return names, nil
}

// LoadMerged loads and merges default → banner. The banner file must exist;
// the default file is optional. It returns the merged RawConfig (without validation).
func (l *Loader) LoadMerged(name string) (RawConfig, error) {
	l.mu.RLock()
	if cfg, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	b, err := os.ReadFile(l.paths.BannerPath(name))
	if err != nil {
		return RawConfig{}, fmt.Errorf("read banner %q: %w", name, err)
	}
	var bannerCfg RawConfig
	if err := yaml.Unmarshal(b, &bannerCfg); err != nil {
		return RawConfig{}, fmt.Errorf("parse banner %q: %w", name, err)
	}

	merged := mergeRaw(defCfg, bannerCfg)

	l.mu.Lock()
	l.cache[name] = merged
	l.mu.Unlock()

	return merged, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, err
	}
	return cfg, nil
}

// mergeRaw performs a deep merge: 'b' overrides 'a' where non-zero/non-nil.
// For slices (rates, batches), 'b' replaces 'a' if provided.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	// top-level scalars
	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Kind != "" {
		out.Kind = b.Kind
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	if len(b.Rates) > 0 {
		out.Rates = append([]RateCfg(nil), b.Rates...)
	}
	if len(b.Batches) > 0 {
		out.Batches = append([]BatchCfg(nil), b.Batches...)
	}

	// pity
	switch {
	case out.Pity == nil && b.Pity != nil:
		c := *b.Pity
		out.Pity = &c
	case out.Pity != nil && b.Pity != nil:
		c := *out.Pity
		if b.Pity.HardThreshold != nil {
			c.HardThreshold = b.Pity.HardThreshold
		}
		if b.Pity.SoftStart != nil {
			c.SoftStart = b.Pity.SoftStart
		}
		if b.Pity.SoftIncrementPct != nil {
			c.SoftIncrementPct = b.Pity.SoftIncrementPct
		}
		if b.Pity.GuaranteedRarity != "" {
			c.GuaranteedRarity = b.Pity.GuaranteedRarity
		}
		out.Pity = &c
	}

	// tokens
	switch {
	case out.Tokens == nil && b.Tokens != nil:
		c := *b.Tokens
		out.Tokens = &c
	case out.Tokens != nil && b.Tokens != nil:
		c := *out.Tokens
		if b.Tokens.Name != "" {
			c.Name = b.Tokens.Name
		}
		if b.Tokens.PerPull != nil {
			c.PerPull = b.Tokens.PerPull
		}
		if len(b.Tokens.PerBatch) > 0 {
			c.PerBatch = b.Tokens.PerBatch
		}
		out.Tokens = &c
	}

	return out
}
