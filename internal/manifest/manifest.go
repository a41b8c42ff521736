// Package manifest parses npm package manifests (package.json) fetched from
// candidate repositories. Parsing happens once at the fetch boundary so the
// rest of the pipeline works with a validated structure instead of raw JSON.
package manifest

import (
	"encoding/json"
	"fmt"
)

// Manifest is the subset of package.json the discovery pipeline cares about:
// the declared package name and the three dependency maps.
type Manifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Description      string            `json:"description"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// Parse decodes raw package.json bytes into a Manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}
	return &m, nil
}

// HasDependency reports whether the package declares pkg in any of its
// runtime, dev, or peer dependency maps.
func (m *Manifest) HasDependency(pkg string) bool {
	if _, ok := m.Dependencies[pkg]; ok {
		return true
	}
	if _, ok := m.DevDependencies[pkg]; ok {
		return true
	}
	if _, ok := m.PeerDependencies[pkg]; ok {
		return true
	}
	return false
}
