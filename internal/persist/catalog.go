package persist

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"wiredraw/internal/doc"
)

//go:embed parts.yaml
var builtinParts []byte

type catalogFile struct {
	Parts []doc.PartVersion `yaml:"parts"`
}

// Catalog is a part library read from YAML. It resolves part versions for
// placement.
type Catalog struct {
	mu    sync.RWMutex
	parts map[string][]doc.PartVersion
}

// DefaultCatalog returns the built-in library.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(builtinParts)
	if err != nil {
		panic("persist: built-in parts: " + err.Error())
	}
	return c
}

// LoadCatalog reads a library file and merges it over the built-in parts.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c := DefaultCatalog()
	extra, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	for _, versions := range extra.parts {
		for _, p := range versions {
			c.Add(p)
		}
	}
	return c, nil
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse parts: %w", err)
	}
	c := &Catalog{parts: make(map[string][]doc.PartVersion)}
	for i, p := range f.Parts {
		if p.PartUID == "" || p.Version == "" {
			return nil, fmt.Errorf("part %d: uid and version are required", i)
		}
		if p.Kind == "" {
			p.Kind = doc.KindSymbol
		}
		c.Add(p)
	}
	return c, nil
}

// Add inserts or replaces one part version.
func (c *Catalog) Add(p doc.PartVersion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	versions := slices.DeleteFunc(c.parts[p.PartUID], func(v doc.PartVersion) bool {
		return v.Version == p.Version
	})
	versions = append(versions, p.Clone())
	slices.SortFunc(versions, func(a, b doc.PartVersion) int { return compareVersions(a.Version, b.Version) })
	c.parts[p.PartUID] = versions
}

// Parts returns the latest version of every part, ordered by uid.
func (c *Catalog) Parts() []doc.PartVersion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]doc.PartVersion, 0, len(c.parts))
	for _, versions := range c.parts {
		out = append(out, versions[len(versions)-1].Clone())
	}
	slices.SortFunc(out, func(a, b doc.PartVersion) int {
		if a.PartUID < b.PartUID {
			return -1
		}
		if a.PartUID > b.PartUID {
			return 1
		}
		return 0
	})
	return out
}

func (c *Catalog) ResolvePartVersion(ctx context.Context, partUID, version string) (doc.PartVersion, error) {
	if err := ctx.Err(); err != nil {
		return doc.PartVersion{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	versions := c.parts[partUID]
	if len(versions) == 0 {
		return doc.PartVersion{}, fmt.Errorf("part %s: %w", partUID, ErrNotFound)
	}
	if version == "" {
		return versions[len(versions)-1].Clone(), nil
	}
	for _, v := range versions {
		if v.Version == version {
			return v.Clone(), nil
		}
	}
	return doc.PartVersion{}, fmt.Errorf("part %s version %s: %w", partUID, version, ErrNotFound)
}

// compareVersions orders numeric versions numerically and anything else
// lexically, numbers first.
func compareVersions(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
