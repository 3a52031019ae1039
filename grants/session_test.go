package grants

import (
	"context"
	"errors"
	"testing"
)

func TestSessionLifecycleErrors(t *testing.T) {
	e := newTestEngine(t)

	if err := e.CommitSession(); !errors.Is(err, ErrNoOpenSession) {
		t.Errorf("CommitSession without session: err = %v, want ErrNoOpenSession", err)
	}
	if err := e.RollbackSession(); !errors.Is(err, ErrNoOpenSession) {
		t.Errorf("RollbackSession without session: err = %v, want ErrNoOpenSession", err)
	}

	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}
	if !e.SessionOpen() {
		t.Error("SessionOpen() = false after CreateSession")
	}
	if err := e.CreateSession(); !errors.Is(err, ErrSessionAlreadyOpen) {
		t.Errorf("nested CreateSession: err = %v, want ErrSessionAlreadyOpen", err)
	}
	if err := e.RollbackSession(); err != nil {
		t.Fatal(err)
	}
	if e.SessionOpen() {
		t.Error("SessionOpen() = true after rollback")
	}
}

func TestStagedChangesVisibleBeforeCommit(t *testing.T) {
	e := newTestEngine(t)
	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}

	if err := e.AddUser("dave"); err != nil {
		t.Fatal(err)
	}
	if err := e.AttachUserToGroup("dave", "engineering"); err != nil {
		t.Fatal(err)
	}
	if err := e.SetGrantForGroup("deploy", "engineering", boolPtr(true)); err != nil {
		t.Fatal(err)
	}
	e.DetachUserFromGroup("alice", "backend")

	// Reads reflect the staged view immediately.
	if got := e.EvaluateForUser("deploy", "dave"); got != Allow {
		t.Errorf("staged EvaluateForUser(deploy, dave) = %v, want allow", got)
	}
	if got := sortedGroups(e.ExplicitParentGroupsOfUser("alice")); len(got) != 0 {
		t.Errorf("alice still has parents after staged detach: %v", got)
	}
	if got := e.EvaluateForUser("deploy", "alice"); got != Unknown {
		t.Errorf("detached alice still inherits: %v", got)
	}
}

func TestAddRevertsStageRemoval(t *testing.T) {
	e := newTestEngine(t)
	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}

	e.RemoveGroup("support")
	if got := e.PendingGroups()["support"]; got != ChangeRemoved {
		t.Fatalf("PendingGroups[support] = %v, want removed", got)
	}
	if err := e.AddGroup("support"); err != nil {
		t.Fatalf("re-adding a removal-staged group: %v", err)
	}
	if pending := e.PendingGroups(); len(pending) != 0 {
		t.Errorf("add after staged remove left pending changes: %v", pending)
	}
}

func TestRemoveUnstagesAddition(t *testing.T) {
	e := newTestEngine(t)
	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}

	if err := e.AddPrivilege("audit"); err != nil {
		t.Fatal(err)
	}
	e.RemovePrivilege("audit")
	if pending := e.PendingPrivileges(); len(pending) != 0 {
		t.Errorf("remove after staged add left pending changes: %v", pending)
	}
	ids, _ := e.Privileges(context.Background())
	for _, id := range ids {
		if id == "audit" {
			t.Error("unstaged privilege still visible")
		}
	}
}

func TestRollbackRestoresPriorView(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetGrantForUser("read", "bob", boolPtr(true)); err != nil {
		t.Fatal(err)
	}

	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}
	if err := e.AddUser("dave"); err != nil {
		t.Fatal(err)
	}
	e.RemoveUser("bob")
	e.DetachGroupFromGroup("backend", "engineering")
	if err := e.SetGrantForUser("read", "bob", boolPtr(false)); err != nil {
		t.Fatal(err)
	}
	if err := e.SetGrantForUser("write", "carol", boolPtr(true)); err != nil {
		t.Fatal(err)
	}

	var events []Event
	e.Subscribe(func(ev Event) { events = append(events, ev) })
	if err := e.RollbackSession(); err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 || events[0].Kind != EventSessionRolledBack {
		t.Fatalf("rollback events = %v, want exactly one session.rolledback", events)
	}

	users, _ := e.Users(context.Background())
	if got := sortedUsers(users); len(got) != 3 {
		t.Errorf("users after rollback = %v, want the original three", got)
	}
	if !containsGroup(e.ExplicitSubgroups("engineering"), "backend") {
		t.Error("rollback did not restore the detached nesting")
	}
	if got := e.GrantForUser("read", "bob"); got != Allow {
		t.Errorf("GrantForUser(read, bob) after rollback = %v, want the pre-session allow", got)
	}
	if got := e.GrantForUser("write", "carol"); got != Unknown {
		t.Errorf("GrantForUser(write, carol) after rollback = %v, want unknown", got)
	}
}

func TestPendingGrantsCollapseToUpdated(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetGrantForGroup("write", "staff", boolPtr(true)); err != nil {
		t.Fatal(err)
	}

	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}
	if err := e.SetGrantForGroup("write", "staff", boolPtr(false)); err != nil {
		t.Fatal(err)
	}

	pending := e.PendingGrants()
	if len(pending) != 1 {
		t.Fatalf("PendingGrants = %v, want a single collapsed row", pending)
	}
	for g, st := range pending {
		if st != ChangeUpdated {
			t.Errorf("pending state = %v, want updated", st)
		}
		if g.Allow {
			t.Error("collapsed row must carry the new boolean (false)")
		}
	}
}

func TestSetGrantRevertInsideSession(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetGrantForUser("read", "carol", boolPtr(true)); err != nil {
		t.Fatal(err)
	}

	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}
	if err := e.SetGrantForUser("read", "carol", boolPtr(false)); err != nil {
		t.Fatal(err)
	}
	// Setting the original boolean again cancels the staged flip.
	if err := e.SetGrantForUser("read", "carol", boolPtr(true)); err != nil {
		t.Fatal(err)
	}
	if pending := e.PendingGrants(); len(pending) != 0 {
		t.Errorf("flip and flip back left pending changes: %v", pending)
	}
}

func TestCommitAppliesInOrder(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetGrantForUser("read", "bob", boolPtr(true)); err != nil {
		t.Fatal(err)
	}

	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}
	if err := e.AddPrivilege("audit"); err != nil {
		t.Fatal(err)
	}
	if err := e.AddGroup("ops"); err != nil {
		t.Fatal(err)
	}
	if err := e.AddUser("dave"); err != nil {
		t.Fatal(err)
	}
	if err := e.AttachUserToGroup("dave", "ops"); err != nil {
		t.Fatal(err)
	}
	if err := e.SetGrantForGroup("audit", "ops", boolPtr(true)); err != nil {
		t.Fatal(err)
	}
	if err := e.SetGrantForUser("read", "bob", boolPtr(false)); err != nil {
		t.Fatal(err)
	}
	e.RemoveUser("carol")
	e.DetachUserFromGroup("carol", "staff")
	e.SetGrantForUser("write", "carol", nil) // nothing to clear, no-op

	var events []Event
	e.Subscribe(func(ev Event) { events = append(events, ev) })
	if err := e.CommitSession(); err != nil {
		t.Fatal(err)
	}
	if e.SessionOpen() {
		t.Fatal("session still open after commit")
	}

	want := []EventKind{
		EventRelationRemoved,
		EventUserRemoved,
		EventPrivilegeAdded,
		EventUserAdded,
		EventGroupAdded,
		EventRelationAdded,
		EventGrantAdded,
		EventGrantUpdated,
		EventSessionCommitted,
	}
	if len(events) != len(want) {
		t.Fatalf("commit fired %d events, want %d: %v", len(events), len(want), events)
	}
	for i, kind := range want {
		if events[i].Kind != kind {
			t.Errorf("event[%d].Kind = %s, want %s", i, events[i].Kind, kind)
		}
	}

	// Committed state is live.
	if got := e.EvaluateForUser("audit", "dave"); got != Allow {
		t.Errorf("EvaluateForUser(audit, dave) after commit = %v, want allow", got)
	}
	if got := e.GrantForUser("read", "bob"); got != Deny {
		t.Errorf("GrantForUser(read, bob) after commit = %v, want deny", got)
	}
	rows, _ := e.Grants(context.Background())
	pairs := make(map[grantPair]int)
	for _, g := range rows {
		pairs[g.pair()]++
	}
	for p, n := range pairs {
		if n != 1 {
			t.Errorf("pair %s has %d rows after commit", p.Principal, n)
		}
	}
	if pending := e.PendingGrants(); len(pending) != 0 {
		t.Errorf("pending grants survive commit: %v", pending)
	}
}

func TestCommitRemovedGrantInsideSession(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetGrantForGroup("read", "support", boolPtr(false)); err != nil {
		t.Fatal(err)
	}

	if err := e.CreateSession(); err != nil {
		t.Fatal(err)
	}
	e.SetGrantForGroup("read", "support", nil)

	var events []Event
	e.Subscribe(func(ev Event) { events = append(events, ev) })
	if err := e.CommitSession(); err != nil {
		t.Fatal(err)
	}

	if len(events) != 2 || events[0].Kind != EventGrantRemoved || events[1].Kind != EventSessionCommitted {
		t.Fatalf("events = %v, want grant.removed then session.committed", events)
	}
	if got := e.GrantForGroup("read", "support"); got != Unknown {
		t.Errorf("GrantForGroup after committed clear = %v, want unknown", got)
	}
}

func TestPendingEmptyOutsideSession(t *testing.T) {
	e := newTestEngine(t)
	if err := e.AddPrivilege("audit"); err != nil {
		t.Fatal(err)
	}
	if len(e.PendingPrivileges()) != 0 || len(e.PendingUsers()) != 0 ||
		len(e.PendingGroups()) != 0 || len(e.PendingRelations()) != 0 ||
		len(e.PendingGrants()) != 0 {
		t.Error("pending reports must be empty outside a session")
	}
}
