package tiles

import (
	"fmt"
	"sync"
)

// TileHook lets packages register tile kinds/providers during init().
type TileHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []TileHook
)

// RegisterTileHook registers a hook executed against new registries.
func RegisterTileHook(h TileHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// TileManifest represents config-driven registration entries.
type TileManifest struct {
	Definition TileDefinition
	Provider   Provider
	Renderer   TileRenderer
}

// Registry maps tile type codes to definitions, providers, and renderers.
type Registry struct {
	mu           sync.RWMutex
	definitions  map[string]TileDefinition
	providers    map[string]Provider
	renderers    map[string]TileRenderer
	manifestMeta map[string]ManifestProvider
}

// NewRegistry builds a registry seeded with the built-in tile kinds and
// applies global hooks.
func NewRegistry() *Registry {
	reg := &Registry{
		definitions:  map[string]TileDefinition{},
		providers:    map[string]Provider{},
		renderers:    map[string]TileRenderer{},
		manifestMeta: map[string]ManifestProvider{},
	}
	reg.registerDefaults()
	_ = reg.ApplyHooks()
	return reg
}

func (r *Registry) registerDefaults() {
	for _, def := range DefaultTileDefinitions() {
		_ = r.RegisterDefinition(def)
		if renderer, ok := defaultRenderers[def.Code]; ok {
			_ = r.RegisterRenderer(def.Code, renderer)
		}
	}
}

// ApplyHooks executes registered tile hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// LoadManifest registers definitions/providers/renderers from manifests.
func (r *Registry) LoadManifest(items []TileManifest) error {
	for _, item := range items {
		if err := r.RegisterDefinition(item.Definition); err != nil {
			return err
		}
		if item.Provider != nil {
			if err := r.RegisterProvider(item.Definition.Code, item.Provider); err != nil {
				return err
			}
		}
		if item.Renderer != nil {
			if err := r.RegisterRenderer(item.Definition.Code, item.Renderer); err != nil {
				return err
			}
		}
	}
	return nil
}

// RegisterDefinition stores tile kind metadata.
func (r *Registry) RegisterDefinition(def TileDefinition) error {
	if def.Code == "" {
		return fmt.Errorf("tiles: definition code is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Code] = def
	return nil
}

// RegisterProvider associates a data provider with a tile kind.
func (r *Registry) RegisterProvider(code string, provider Provider) error {
	if code == "" {
		return fmt.Errorf("tiles: definition code is required to register provider")
	}
	if provider == nil {
		return fmt.Errorf("tiles: provider cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[code]; !ok {
		return fmt.Errorf("tiles: definition %s not found", code)
	}
	r.providers[code] = provider
	return nil
}

// RegisterRenderer associates an HTML renderer with a tile kind.
func (r *Registry) RegisterRenderer(code string, renderer TileRenderer) error {
	if code == "" {
		return fmt.Errorf("tiles: definition code is required to register renderer")
	}
	if renderer == nil {
		return fmt.Errorf("tiles: renderer cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[code]; !ok {
		return fmt.Errorf("tiles: definition %s not found", code)
	}
	r.renderers[code] = renderer
	return nil
}

// Definition fetches a tile definition by code.
func (r *Registry) Definition(code string) (TileDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[code]
	return def, ok
}

// Provider fetches a tile provider by code.
func (r *Registry) Provider(code string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[code]
	return provider, ok
}

// Renderer fetches a tile renderer by code.
func (r *Registry) Renderer(code string) (TileRenderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[code]
	return renderer, ok
}

// ProviderMetadata returns any manifest metadata registered for a tile kind.
func (r *Registry) ProviderMetadata(code string) (ManifestProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.manifestMeta[code]
	return meta, ok
}

// Definitions returns all registered definitions.
func (r *Registry) Definitions() []TileDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]TileDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	return defs
}

func (r *Registry) recordProviderMetadata(code string, meta ManifestProvider) {
	if meta.isZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifestMeta[code] = meta
}
