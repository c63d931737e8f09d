package tiles

import (
	"context"
	"sync"
	"testing"
)

type fakePauser struct {
	mu      sync.Mutex
	pauses  int
	resumes int
}

func (p *fakePauser) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses++
}

func (p *fakePauser) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumes++
}

func orderTypes(tiles []Tile) []string {
	out := make([]string, len(tiles))
	for i, tile := range tiles {
		out[i] = tile.Type
	}
	return out
}

func TestReorderSessionMoveShiftsBetween(t *testing.T) {
	tiles := []Tile{
		{ID: 1, Type: "a"}, {ID: 2, Type: "b"}, {ID: 3, Type: "c"},
		{ID: 4, Type: "d"}, {ID: 5, Type: "e"},
	}
	session := NewReorderSession(nil, nil, ViewerContext{UserID: "u1"}, tiles)

	if !session.Move(0, 3) {
		t.Fatal("expected move to apply")
	}
	got := orderTypes(session.Order())
	want := []string{"b", "c", "d", "a", "e"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order after move: %v", got)
		}
	}
}

func TestReorderSessionMoveRejectsBadIndexes(t *testing.T) {
	session := NewReorderSession(nil, nil, ViewerContext{}, []Tile{{ID: 1}, {ID: 2}})
	if session.Move(2, 0) || session.Move(0, 2) || session.Move(-1, 0) {
		t.Fatal("expected out-of-range moves to be rejected")
	}
	if session.Move(1, 1) {
		t.Fatal("expected same-index move to be a no-op")
	}
}

func TestReorderSessionPositionsSkipEphemeral(t *testing.T) {
	session := NewReorderSession(nil, nil, ViewerContext{}, []Tile{
		{ID: 7}, {ID: 0}, {ID: 9},
	})
	positions := session.Positions()
	if len(positions) != 2 {
		t.Fatalf("expected 2 persistable entries, got %d", len(positions))
	}
	// The ephemeral tile still occupies index 1.
	if positions[0].ID != 7 || positions[0].Position != 0 {
		t.Fatalf("unexpected first entry %+v", positions[0])
	}
	if positions[1].ID != 9 || positions[1].Position != 2 {
		t.Fatalf("unexpected second entry %+v", positions[1])
	}
}

func TestReorderSessionPausesAndResumes(t *testing.T) {
	pauser := &fakePauser{}
	store := NewMemoryTileStore()
	seeded := store.Seed("u1", []Tile{{Type: "a"}, {Type: "b"}})
	service := NewService(Options{TileStore: store})

	session := NewReorderSession(service, pauser, ViewerContext{UserID: "u1"}, seeded)
	if pauser.pauses != 1 {
		t.Fatalf("expected refresh paused on enter, got %d", pauser.pauses)
	}
	session.Move(0, 1)
	if err := session.Save(context.Background()); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if !session.Saved() || session.Active() {
		t.Fatal("expected session saved and exited")
	}
	if pauser.resumes != 1 {
		t.Fatalf("expected refresh resumed after save, got %d", pauser.resumes)
	}

	tiles, _ := store.TilesForUser(context.Background(), "u1")
	if tiles[0].Type != "b" || tiles[1].Type != "a" {
		t.Fatalf("expected persisted swap, got %v", orderTypes(tiles))
	}
}

func TestReorderSessionKeepsPendingOrderOnFailedSave(t *testing.T) {
	pauser := &fakePauser{}
	store := NewMemoryTileStore()
	store.Seed("u1", []Tile{{Type: "a"}})
	service := NewService(Options{TileStore: store})

	// A tile the store does not know fails the batch.
	session := NewReorderSession(service, pauser, ViewerContext{UserID: "u1"}, []Tile{
		{ID: 1, Type: "a"}, {ID: 42, Type: "ghost"},
	})
	if err := session.Save(context.Background()); err == nil {
		t.Fatal("expected save failure")
	}
	if !session.Active() {
		t.Fatal("expected session to stay active after failed save")
	}
	if session.Saved() {
		t.Fatal("expected session not marked saved")
	}
	if pauser.resumes != 0 {
		t.Fatal("expected refresh to stay paused after failed save")
	}

	session.Cancel()
	if session.Active() {
		t.Fatal("expected cancel to exit the session")
	}
	if pauser.resumes != 1 {
		t.Fatalf("expected refresh resumed on cancel, got %d", pauser.resumes)
	}
}
