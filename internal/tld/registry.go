// Package tld holds the ordered top-level-domain registry the classifier was
// trained against and the drop-first one-hot encoder built on top of it.
package tld

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed tlds.json
var defaultRegistryJSON []byte

var (
	errEmptyRegistry = errors.New("tld: registry is empty")
	errEmptyEntry    = errors.New("tld: registry contains an empty entry")
	errDuplicate     = errors.New("tld: registry contains a duplicate entry")
)

// Registry is the ordered, immutable list of known TLDs. Index order is the
// training-time column order and must never be re-sorted.
type Registry struct {
	tlds  []string
	index map[string]int
}

// LoadRegistry decodes a JSON array of TLD strings. Entries are lower-cased
// and trimmed; empty or duplicate entries are rejected because they would
// shift every column after them.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var raw []string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("tld: decode registry: %w", err)
	}
	if len(raw) == 0 {
		return nil, errEmptyRegistry
	}

	reg := &Registry{
		tlds:  make([]string, len(raw)),
		index: make(map[string]int, len(raw)),
	}
	for i, entry := range raw {
		t := normalize(entry)
		if t == "" {
			return nil, fmt.Errorf("%w: position %d", errEmptyEntry, i)
		}
		if prev, ok := reg.index[t]; ok {
			return nil, fmt.Errorf("%w: %q at positions %d and %d", errDuplicate, t, prev, i)
		}
		reg.tlds[i] = t
		reg.index[t] = i
	}
	return reg, nil
}

// LoadRegistryFile loads the registry from path, or the embedded default when
// path is empty.
func LoadRegistryFile(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tld: open registry: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadRegistry(f)
}

// DefaultRegistry returns the registry bundled with the binary.
func DefaultRegistry() (*Registry, error) {
	return LoadRegistry(bytes.NewReader(defaultRegistryJSON))
}

// Len returns the number of registry entries, baseline included.
func (r *Registry) Len() int { return len(r.tlds) }

// At returns the TLD at position i.
func (r *Registry) At(i int) string { return r.tlds[i] }

// Position returns the registry position of t (case-insensitive) or -1.
func (r *Registry) Position(t string) int {
	if i, ok := r.index[normalize(t)]; ok {
		return i
	}
	return -1
}

// Contains reports whether t is a registered TLD.
func (r *Registry) Contains(t string) bool {
	return r.Position(t) >= 0
}

// All returns a copy of the registry in order.
func (r *Registry) All() []string {
	out := make([]string, len(r.tlds))
	copy(out, r.tlds)
	return out
}

func normalize(t string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(t)), ".")
}
