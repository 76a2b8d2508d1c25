// Package store loads store.yaml manifests and builds the per-locale HTML
// documents published to the product listing.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// fileRefPattern matches the "file:docs/store.md" string form of a reference.
var fileRefPattern = regexp.MustCompile(`^\s*file\s*:\s*(.+?)\s*$`)

// Content is locale content that is either inline Markdown text or a
// reference to a file on disk. The manifest allows two reference spellings
// ({file: path} mappings and "file:path" strings); both decode into the same
// tagged variant at load time so nothing downstream inspects raw YAML shapes.
type Content struct {
	Text string
	File string
}

// UnmarshalYAML decodes the scalar or mapping form of a content entry.
func (c *Content) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if m := fileRefPattern.FindStringSubmatch(s); m != nil {
			c.File = m[1]
			return nil
		}
		c.Text = s
		return nil
	case yaml.MappingNode:
		var ref struct {
			File string `yaml:"file"`
		}
		if err := value.Decode(&ref); err != nil {
			return err
		}
		if ref.File == "" {
			return fmt.Errorf("line %d: file reference without a 'file' key", value.Line)
		}
		c.File = ref.File
		return nil
	}
	return fmt.Errorf("line %d: content must be text or a file reference", value.Line)
}

// IsZero reports whether no content was provided.
func (c Content) IsZero() bool {
	return c.Text == "" && c.File == ""
}

// Resolve returns the content text, reading the referenced file when needed.
func (c Content) Resolve(baseDir string) (string, error) {
	if c.File == "" {
		return c.Text, nil
	}
	path := filepath.Join(baseDir, c.File)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("manifest references missing file: %s", path)
	}
	return string(data), nil
}

// Image is one entry of the ordered manifest image list.
type Image struct {
	File string `yaml:"file"`
	// Preview flags the image as the locale's preview/cover candidate.
	Preview map[string]bool `yaml:"preview"`
}

// PreviewAny reports whether the image is flagged as preview for any locale.
func (i Image) PreviewAny() bool {
	for _, flagged := range i.Preview {
		if flagged {
			return true
		}
	}
	return false
}

// Manifest mirrors the store: block of store.yaml.
type Manifest struct {
	Description map[string]Content  `yaml:"description"`
	Manual      map[string]Content  `yaml:"installation_manual"`
	Highlights  map[string][]string `yaml:"highlights"`
	Features    map[string][]string `yaml:"features"`
	Images      []Image             `yaml:"images"`
}

// Load reads a store manifest. The top-level "store" key is required.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest not found: %s", path)
	}

	var doc struct {
		Store *Manifest `yaml:"store"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if doc.Store == nil {
		return nil, fmt.Errorf("top-level 'store' key missing in %s", path)
	}

	return doc.Store, nil
}

// Locales returns the sorted union of locales across the description, manual,
// highlight, and feature maps.
func (m *Manifest) Locales() []string {
	seen := make(map[string]bool)
	for locale := range m.Description {
		seen[locale] = true
	}
	for locale := range m.Manual {
		seen[locale] = true
	}
	for locale := range m.Highlights {
		seen[locale] = true
	}
	for locale := range m.Features {
		seen[locale] = true
	}

	locales := make([]string, 0, len(seen))
	for locale := range seen {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}
