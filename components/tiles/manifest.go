package tiles

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// TileManifestDocument models a YAML/JSON manifest describing tile kinds.
type TileManifestDocument struct {
	Version  string         `json:"version" yaml:"version"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Package  string         `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage string         `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Tiles    []ManifestTile `json:"tiles" yaml:"tiles"`
	Source   string         `json:"-" yaml:"-"`
}

// ManifestTile describes a single tile entry within a manifest.
type ManifestTile struct {
	Definition  TileDefinition   `json:"definition" yaml:"definition"`
	Provider    ManifestProvider `json:"provider,omitempty" yaml:"provider,omitempty"`
	Maintainers []string         `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestProvider captures discovery metadata about a provider implementation.
type ManifestProvider struct {
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Summary      string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Entry        string   `json:"entry,omitempty" yaml:"entry,omitempty"`
	Package      string   `json:"package,omitempty" yaml:"package,omitempty"`
	DocsURL      string   `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Channel      string   `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// LoadManifestFile reads a manifest from disk, registers it against the
// registry, and returns the document.
func (r *Registry) LoadManifestFile(path string) (*TileManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers definitions and provider metadata from a
// decoded manifest.
func (r *Registry) LoadManifestDocument(doc *TileManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("tiles: manifest document is nil")
	}
	for _, tile := range doc.Tiles {
		if err := r.RegisterDefinition(tile.Definition); err != nil {
			return fmt.Errorf("tiles: register tile %s from %s: %w", tile.Definition.Code, doc.Source, err)
		}
		r.recordProviderMetadata(tile.Definition.Code, tile.Provider)
	}
	return nil
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*TileManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("tiles: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("tiles: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*TileManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc TileManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("tiles: manifest is empty")
		}
		return nil, fmt.Errorf("tiles: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *TileManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("tiles: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Tiles))
	for idx, tile := range doc.Tiles {
		if tile.Definition.Code == "" {
			return fmt.Errorf("tiles: manifest tile at index %d is missing definition.code", idx)
		}
		if tile.Definition.Name == "" {
			return fmt.Errorf("tiles: manifest tile %s missing definition.name", tile.Definition.Code)
		}
		if _, exists := seen[tile.Definition.Code]; exists {
			return fmt.Errorf("tiles: manifest duplicates tile code %s", tile.Definition.Code)
		}
		seen[tile.Definition.Code] = struct{}{}
	}
	return nil
}

func (doc *TileManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
}

func (p ManifestProvider) isZero() bool {
	return p.Name == "" &&
		p.Summary == "" &&
		p.Entry == "" &&
		p.Package == "" &&
		p.DocsURL == "" &&
		len(p.Capabilities) == 0 &&
		p.Channel == ""
}
