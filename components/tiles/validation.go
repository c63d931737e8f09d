package tiles

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PayloadValidator checks fetched tile payloads against their schema so a
// malformed upstream response fails fast instead of rendering garbled HTML.
type PayloadValidator interface {
	ValidatePayload(def TileDefinition, payload TilePayload) error
}

// ConfigValidator validates tile configuration payloads against their schema.
type ConfigValidator interface {
	ValidateConfig(def TileDefinition, config map[string]any) error
}

// JSONSchemaValidator compiles tile schemas and validates configuration and
// payload maps. Compiled schemas are cached per tile code.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// ValidateConfig ensures the provided configuration satisfies the tile's
// config schema.
func (v *JSONSchemaValidator) ValidateConfig(def TileDefinition, config map[string]any) error {
	if len(def.ConfigSchema) == 0 {
		return nil
	}
	if err := v.validate(def.Code+"#config", def.ConfigSchema, config); err != nil {
		return fmt.Errorf("tiles: configuration for %s failed validation: %w", def.Code, err)
	}
	return nil
}

// ValidatePayload ensures a fetched payload satisfies the tile's payload
// schema, returning a SchemaError on mismatch.
func (v *JSONSchemaValidator) ValidatePayload(def TileDefinition, payload TilePayload) error {
	if len(def.PayloadSchema) == 0 {
		return nil
	}
	if err := v.validate(def.Code+"#payload", def.PayloadSchema, map[string]any(payload)); err != nil {
		return &SchemaError{TileType: def.Code, Err: err}
	}
	return nil
}

func (v *JSONSchemaValidator) validate(key string, schemaDoc map[string]any, doc map[string]any) error {
	schema, err := v.schemaFor(key, schemaDoc)
	if err != nil {
		return err
	}
	var normalized map[string]any
	if doc == nil {
		normalized = map[string]any{}
	} else {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		if err := json.Unmarshal(data, &normalized); err != nil {
			return fmt.Errorf("normalize document: %w", err)
		}
	}
	return schema.Validate(normalized)
}

func (v *JSONSchemaValidator) schemaFor(key string, schemaDoc map[string]any) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(schemaDoc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", key, err)
	}
	compiler := jsonschema.NewCompiler()
	// jsonschema resource URLs must not contain '#' (the library panics on
	// fragments), so the cache key's separator is swapped for the URL.
	name := strings.ReplaceAll(key, "#", "/") + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", key, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", key, err)
	}
	v.mu.Lock()
	v.compiled[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopValidator struct{}

func (noopValidator) ValidateConfig(TileDefinition, map[string]any) error  { return nil }
func (noopValidator) ValidatePayload(TileDefinition, TilePayload) error    { return nil }
