package tiles

import (
	"context"
	"testing"
)

func TestNewRegistrySeedsBuiltinDefinitions(t *testing.T) {
	reg := NewRegistry()
	for _, code := range []string{TypeEmail, TypeCalendar, TypeTasks, TypeWeather, TypeTrains, TypeNotes, TypeBookmarks, TypeLinkBoard, TypeClaude} {
		if _, ok := reg.Definition(code); !ok {
			t.Fatalf("missing built-in definition %s", code)
		}
		if _, ok := reg.Renderer(code); !ok {
			t.Fatalf("missing built-in renderer %s", code)
		}
	}
}

func TestRegisterProviderRequiresDefinition(t *testing.T) {
	reg := NewRegistry()
	err := reg.RegisterProvider("unknown", ProviderFunc(func(context.Context, TileContext) (TilePayload, error) {
		return nil, nil
	}))
	if err == nil {
		t.Fatal("expected error for unknown definition")
	}
	if err := reg.RegisterProvider(TypeEmail, nil); err == nil {
		t.Fatal("expected error for nil provider")
	}
}

func TestRegisterDefinitionRequiresCode(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterDefinition(TileDefinition{Name: "Nameless"}); err == nil {
		t.Fatal("expected error for missing code")
	}
}

func TestLoadManifestRegistersEverything(t *testing.T) {
	reg := NewRegistry()
	provider := ProviderFunc(func(context.Context, TileContext) (TilePayload, error) {
		return TilePayload{"connected": true}, nil
	})
	renderer := RendererFunc(func(context.Context, RenderState) (string, error) {
		return "<div></div>", nil
	})
	err := reg.LoadManifest([]TileManifest{
		{
			Definition: TileDefinition{Code: "custom.tile", Name: "Custom"},
			Provider:   provider,
			Renderer:   renderer,
		},
	})
	if err != nil {
		t.Fatalf("LoadManifest returned error: %v", err)
	}
	if _, ok := reg.Provider("custom.tile"); !ok {
		t.Fatal("expected provider registered")
	}
	if _, ok := reg.Renderer("custom.tile"); !ok {
		t.Fatal("expected renderer registered")
	}
}
