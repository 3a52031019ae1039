package gormstore

import (
	"context"
	"testing"

	"github.com/vespertan/privileges/grants"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open("sqlite", ":memory:", nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := NewStore(db)
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestListenerPersistsEngineChanges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e, err := grants.NewEngine(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	e.Subscribe(store.Listener())

	if err := e.AddPrivilege("read"); err != nil {
		t.Fatal(err)
	}
	if err := e.AddGroup("staff"); err != nil {
		t.Fatal(err)
	}
	if err := e.AddUser("alice"); err != nil {
		t.Fatal(err)
	}
	if err := e.AttachUserToGroup("alice", "staff"); err != nil {
		t.Fatal(err)
	}
	allow := true
	if err := e.SetGrantForGroup("read", "staff", &allow); err != nil {
		t.Fatal(err)
	}

	// A second engine loaded from the same store sees the same world.
	e2, err := grants.NewEngine(ctx, store)
	if err != nil {
		t.Fatalf("reload from store: %v", err)
	}
	if got := e2.EvaluateForUser("read", "alice"); got != grants.Allow {
		t.Errorf("reloaded EvaluateForUser(read, alice) = %v, want allow", got)
	}
}

func TestListenerGrantUpdateOverwritesRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e, err := grants.NewEngine(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	e.Subscribe(store.Listener())

	if err := e.AddPrivilege("read"); err != nil {
		t.Fatal(err)
	}
	if err := e.AddUser("alice"); err != nil {
		t.Fatal(err)
	}
	allow, deny := true, false
	if err := e.SetGrantForUser("read", "alice", &allow); err != nil {
		t.Fatal(err)
	}
	if err := e.SetGrantForUser("read", "alice", &deny); err != nil {
		t.Fatal(err)
	}

	rows, err := store.Grants(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("stored %d grant rows, want exactly 1: %v", len(rows), rows)
	}
	if rows[0].Allow {
		t.Error("stored grant still allow after flip to deny")
	}

	if err := e.SetGrantForUser("read", "alice", nil); err != nil {
		t.Fatal(err)
	}
	rows, _ = store.Grants(ctx)
	if len(rows) != 0 {
		t.Errorf("stored %d grant rows after clear, want 0", len(rows))
	}
}

func TestListenerAppliesCommittedSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e, err := grants.NewEngine(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	e.Subscribe(store.Listener())

	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}
	if err := e.AddPrivilege("deploy"); err != nil {
		t.Fatal(err)
	}
	if err := e.AddGroup("ops"); err != nil {
		t.Fatal(err)
	}
	allow := true
	if err := e.SetGrantForGroup("deploy", "ops", &allow); err != nil {
		t.Fatal(err)
	}

	// Nothing hits the database until commit.
	ids, err := store.Privileges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("staged changes leaked to the store: %v", ids)
	}

	if err := e.CommitSession(); err != nil {
		t.Fatal(err)
	}

	ids, _ = store.Privileges(ctx)
	if len(ids) != 1 || ids[0] != "deploy" {
		t.Errorf("privileges after commit = %v, want [deploy]", ids)
	}
	rows, _ := store.Grants(ctx)
	if len(rows) != 1 || !rows[0].Allow {
		t.Errorf("grants after commit = %v, want one allow row", rows)
	}
}

func TestImportSnapshot(t *testing.T) {
	ctx := context.Background()
	src := grants.NewMemorySource().
		SeedPrivileges("read", "write").
		SeedUsers("alice").
		SeedGroups("staff").
		SeedRelations(grants.NewMembership("staff", "alice")).
		SeedGrants(grants.NewGrant("read", grants.GroupPrincipal("staff"), true))

	store := newTestStore(t)
	if err := store.Import(ctx, src); err != nil {
		t.Fatal(err)
	}

	e, err := grants.NewEngine(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.EvaluateForUser("read", "alice"); got != grants.Allow {
		t.Errorf("EvaluateForUser(read, alice) = %v, want allow", got)
	}

	// Importing again replaces, not appends.
	if err := store.Import(ctx, src); err != nil {
		t.Fatal(err)
	}
	ids, _ := store.Privileges(ctx)
	if len(ids) != 2 {
		t.Errorf("after re-import, %d privileges, want 2", len(ids))
	}
}

func TestOpenUnknownType(t *testing.T) {
	if _, err := Open("oracle", "dsn", nil); err == nil {
		t.Error("Open with unregistered type must fail")
	}
}
