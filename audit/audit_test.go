package audit

import (
	"context"
	"testing"
	"time"

	"github.com/vespertan/privileges/grants"
)

func TestRecorderCapturesEngineEvents(t *testing.T) {
	src := grants.NewMemorySource().
		SeedPrivileges("read").
		SeedUsers("alice").
		SeedGroups("staff")
	e, err := grants.NewEngine(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}

	store := NewMemoryStore()
	e.Subscribe(NewRecorder(store).Listener())

	if err := e.AttachUserToGroup("alice", "staff"); err != nil {
		t.Fatal(err)
	}
	allow := true
	if err := e.SetGrantForGroup("read", "staff", &allow); err != nil {
		t.Fatal(err)
	}

	recs, err := store.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2: %v", len(recs), recs)
	}
	if recs[0].Type != string(grants.EventRelationAdded) || recs[0].Relation == "" {
		t.Errorf("record[0] = %+v, want a relation.added with the relation string", recs[0])
	}
	if recs[1].Type != string(grants.EventGrantAdded) || recs[1].Privilege != "read" {
		t.Errorf("record[1] = %+v, want a grant.added carrying the privilege", recs[1])
	}
	for _, rec := range recs {
		if rec.ID == "" {
			t.Error("record without generated ID")
		}
		if rec.CreatedAt.IsZero() {
			t.Error("record without timestamp")
		}
	}
}

func TestMemoryStoreFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	seed := []Record{
		{ID: "1", Type: "grant.added", Privilege: "read", User: "alice", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "2", Type: "grant.removed", Privilege: "read", User: "alice", CreatedAt: now.Add(-time.Hour)},
		{ID: "3", Type: "grant.added", Privilege: "write", Group: "staff", CreatedAt: now},
	}
	for i := range seed {
		if err := store.Save(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := store.Query(ctx, Filter{Types: []string{"grant.added"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Errorf("type filter: got %d records, want 2", len(recs))
	}

	recs, _ = store.Query(ctx, Filter{User: "alice", Privilege: "read"})
	if len(recs) != 2 {
		t.Errorf("user filter: got %d records, want 2", len(recs))
	}

	recs, _ = store.Query(ctx, Filter{StartTime: now.Add(-90 * time.Minute)})
	if len(recs) != 2 {
		t.Errorf("time filter: got %d records, want 2", len(recs))
	}

	recs, _ = store.Query(ctx, Filter{Limit: 1})
	if len(recs) != 1 || recs[0].ID != "1" {
		t.Errorf("limit: got %v, want just the oldest record", recs)
	}

	n, _ := store.Count(ctx, Filter{Group: "staff"})
	if n != 1 {
		t.Errorf("Count(group=staff) = %d, want 1", n)
	}
}
