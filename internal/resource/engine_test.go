package resource

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newNoteEngine(t *testing.T) (*Engine[*note], *MemStore[*note]) {
	t.Helper()
	schema := noteSchema(knownAuthors)
	store := NewMemStore(schema)
	return NewEngine(schema, store, WithClock[*note](fixedClock)), store
}

func TestEngineCreateAssignsIdentity(t *testing.T) {
	eng, store := newNoteEngine(t)

	rec, err := eng.Create(context.Background(), Record{
		"title":  "Minutes",
		"author": authorA,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id, _ := rec["uuid"].(string)
	if id == "" {
		t.Fatal("expected a public id")
	}
	created, _ := rec["created_at"].(time.Time)
	updated, _ := rec["updated_at"].(time.Time)
	if !created.Equal(fixedClock()) || !updated.Equal(fixedClock()) {
		t.Fatalf("timestamps: %v / %v", created, updated)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d entities", store.Len())
	}

	got, err := eng.Get(context.Background(), id, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["title"] != "Minutes" {
		t.Fatalf("title: %v", got["title"])
	}
}

func TestEngineCreateRejectsDuplicate(t *testing.T) {
	eng, _ := newNoteEngine(t)
	ctx := context.Background()

	if _, err := eng.Create(ctx, Record{"title": "Minutes"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := eng.Create(ctx, Record{"title": "Minutes"})
	fe, ok := AsFieldErrors(err)
	if !ok {
		t.Fatalf("expected field errors, got %v", err)
	}
	if fe["title"] == "" {
		t.Fatalf("expected title conflict, got %v", fe)
	}
}

func TestEngineGetRejectsBadID(t *testing.T) {
	eng, _ := newNoteEngine(t)

	if _, err := eng.Get(context.Background(), "nope", nil); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := eng.Get(context.Background(), authorA, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEngineEdit(t *testing.T) {
	eng, _ := newNoteEngine(t)
	ctx := context.Background()

	rec, err := eng.Create(ctx, Record{"title": "Minutes", "body": "old"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := rec["uuid"].(string)

	changed, err := eng.Edit(ctx, id, Record{"body": "new", "pinned": true})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	want := []string{"body", "pinned", "updated_at"}
	if !slices.Equal(changed, want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}

	if _, err := eng.Edit(ctx, id, Record{"body": "new"}); !errors.Is(err, ErrNoChange) {
		t.Fatalf("expected ErrNoChange, got %v", err)
	}
}

func TestEngineEditDoesNotPersistInvalidInput(t *testing.T) {
	eng, _ := newNoteEngine(t)
	ctx := context.Background()

	rec, err := eng.Create(ctx, Record{"title": "Minutes", "body": "old"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := rec["uuid"].(string)

	_, err = eng.Edit(ctx, id, Record{"body": "new", "count": float64(-1)})
	if _, ok := AsFieldErrors(err); !ok {
		t.Fatalf("expected field errors, got %v", err)
	}

	got, err := eng.Get(ctx, id, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["body"] != "old" {
		t.Fatalf("rejected edit leaked a write: %v", got["body"])
	}
}

func TestEngineListFilters(t *testing.T) {
	eng, _ := newNoteEngine(t)
	ctx := context.Background()

	for _, in := range []Record{
		{"title": "a", "pinned": true, "tags": []any{"ops"}},
		{"title": "b", "pinned": false, "tags": []any{"ops", "urgent"}},
		{"title": "c", "pinned": true},
	} {
		if _, err := eng.Create(ctx, in); err != nil {
			t.Fatalf("Create %v: %v", in["title"], err)
		}
	}

	pinned, err := eng.List(ctx, Filter{"pinned": "true"}, nil)
	if err != nil {
		t.Fatalf("List pinned: %v", err)
	}
	if len(pinned) != 2 {
		t.Fatalf("pinned: got %d records", len(pinned))
	}

	tagged, err := eng.List(ctx, Filter{"tags": "urgent"}, nil)
	if err != nil {
		t.Fatalf("List tags: %v", err)
	}
	if len(tagged) != 1 || tagged[0]["title"] != "b" {
		t.Fatalf("tags filter: %v", tagged)
	}

	trimmed, err := eng.List(ctx, Filter{"pinned": "true"}, map[string]struct{}{"tags": {}})
	if err != nil {
		t.Fatalf("List exclude: %v", err)
	}
	for _, rec := range trimmed {
		if _, present := rec["tags"]; present {
			t.Fatalf("tags not excluded: %v", rec)
		}
	}

	_, err = eng.List(ctx, Filter{"body": "x"}, nil)
	fe, ok := AsFieldErrors(err)
	if !ok || fe["body"] != "Cannot filter on this field." {
		t.Fatalf("expected filter rejection, got %v", err)
	}
}

func TestEngineDeleteRunsHooks(t *testing.T) {
	schema := noteSchema(knownAuthors)
	store := NewMemStore(schema)
	var hooked []string
	eng := NewEngine(schema, store,
		WithClock[*note](fixedClock),
		WithDeleteHook[*note](func(ctx context.Context, publicID string) error {
			hooked = append(hooked, publicID)
			return nil
		}),
	)
	ctx := context.Background()

	rec, err := eng.Create(ctx, Record{"title": "Minutes"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := rec["uuid"].(string)

	if err := eng.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(hooked) != 1 || hooked[0] != id {
		t.Fatalf("hook calls: %v", hooked)
	}
	if store.Len() != 0 {
		t.Fatalf("store still holds %d entities", store.Len())
	}
	if _, err := eng.Get(ctx, id, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestEngineDeleteStopsOnHookFailure(t *testing.T) {
	schema := noteSchema(knownAuthors)
	store := NewMemStore(schema)
	boom := errors.New("dependent cleanup failed")
	eng := NewEngine(schema, store,
		WithDeleteHook[*note](func(ctx context.Context, publicID string) error { return boom }),
	)
	ctx := context.Background()

	rec, err := eng.Create(ctx, Record{"title": "Minutes"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := rec["uuid"].(string)

	if err := eng.Delete(ctx, id); !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatal("entity must survive a failed cascade")
	}
}

func TestStoreResolver(t *testing.T) {
	schema := noteSchema(knownAuthors)
	store := NewMemStore(schema)
	eng := NewEngine(schema, store)
	ctx := context.Background()

	rec, err := eng.Create(ctx, Record{"title": "Minutes"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := rec["uuid"].(string)

	resolve := StoreResolver[*note](store)
	missing, err := resolve(ctx, []string{id, authorB})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !slices.Equal(missing, []string{authorB}) {
		t.Fatalf("missing = %v", missing)
	}
}

func TestMemStoreUpdateAndIsolation(t *testing.T) {
	schema := noteSchema(knownAuthors)
	store := NewMemStore(schema)
	eng := NewEngine(schema, store, WithClock[*note](fixedClock))
	ctx := context.Background()

	rec, err := eng.Create(ctx, Record{"title": "Minutes", "tags": []any{"ops"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := rec["uuid"].(string)

	got, err := store.FindByPublicID(ctx, id)
	if err != nil {
		t.Fatalf("FindByPublicID: %v", err)
	}
	// Mutating a returned copy must not reach the stored entity.
	got.Tags[0] = "mangled"
	again, err := store.FindByPublicID(ctx, id)
	if err != nil {
		t.Fatalf("FindByPublicID: %v", err)
	}
	if again.Tags[0] != "ops" {
		t.Fatalf("store handed out shared state: %v", again.Tags)
	}
}
