package ledger_test

import (
	"context"
	"testing"

	"groundswell/internal/db"
	"groundswell/internal/ledger"
	"groundswell/internal/schema"
)

func newLedger(t *testing.T) (ledger.Ledger, context.Context) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	if err := schema.New(conn).Ensure(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return ledger.Ledger{DB: conn}, ctx
}

func TestEmitRequiresType(t *testing.T) {
	l, ctx := newLedger(t)
	if _, err := l.Emit(ctx, ledger.Event{}); err == nil {
		t.Fatal("expected error for empty type")
	}
}

func TestEmitAndList(t *testing.T) {
	l, ctx := newLedger(t)
	initiative := int64(1)
	other := int64(2)

	id, err := l.Emit(ctx, ledger.Event{
		Type:         "initiative.created",
		Payload:      map[string]any{"title": "Flood Relief"},
		InitiativeID: &initiative,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d", id)
	}
	if _, err := l.Emit(ctx, ledger.Event{Type: "initiative.created", InitiativeID: &other}); err != nil {
		t.Fatalf("emit other: %v", err)
	}

	all, err := l.List(ctx, ledger.Filter{}, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d, want 2", len(all))
	}

	scoped, err := l.List(ctx, ledger.Filter{InitiativeID: &initiative}, 0)
	if err != nil {
		t.Fatalf("list scoped: %v", err)
	}
	if len(scoped) != 1 {
		t.Fatalf("scoped = %d, want 1", len(scoped))
	}
	got := scoped[0]
	if got.Type != "initiative.created" {
		t.Fatalf("type = %q", got.Type)
	}
	if got.Payload["title"] != "Flood Relief" {
		t.Fatalf("payload = %v", got.Payload)
	}
	if got.InitiativeID == nil || *got.InitiativeID != initiative {
		t.Fatalf("initiative ref = %v", got.InitiativeID)
	}
}

func TestListBounds(t *testing.T) {
	l, ctx := newLedger(t)
	for i := 0; i < 10; i++ {
		if _, err := l.Emit(ctx, ledger.Event{Type: "tick"}); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	got, err := l.List(ctx, ledger.Filter{}, 4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	// Newest first: ids strictly descending.
	for i := 1; i < len(got); i++ {
		if got[i-1].ID <= got[i].ID {
			t.Fatalf("ordering broken at %d: %d then %d", i, got[i-1].ID, got[i].ID)
		}
	}

	// Zero, negative and oversized limits all clamp to the default window.
	for _, limit := range []int{0, -5, ledger.DefaultFeedLimit + 1} {
		got, err := l.List(ctx, ledger.Filter{}, limit)
		if err != nil {
			t.Fatalf("list limit=%d: %v", limit, err)
		}
		if len(got) != 10 {
			t.Fatalf("limit=%d len = %d, want 10", limit, len(got))
		}
	}
}
