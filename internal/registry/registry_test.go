package registry

import (
	"testing"

	"github.com/roach88/quorumgate/internal/message"
)

var (
	adapterA = message.MustAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	adapterB = message.MustAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	adapterC = message.MustAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func TestAdd_Idempotent(t *testing.T) {
	r := New()

	if !r.Add(adapterA, "wormhole") {
		t.Error("first Add returned false")
	}
	if r.Add(adapterA, "other-name") {
		t.Error("second Add returned true")
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
	if name, _ := r.Name(adapterA); name != "wormhole" {
		t.Errorf("re-add overwrote name: got %q", name)
	}
}

func TestAdd_EmptyNameDefaultsToIdentity(t *testing.T) {
	r := New()
	r.Add(adapterA, "")
	if name, _ := r.Name(adapterA); name != string(adapterA) {
		t.Errorf("Name = %q, want identity string", name)
	}
}

func TestRemove_NonMemberNoOp(t *testing.T) {
	r := New()
	r.Add(adapterA, "wormhole")

	if r.Remove(adapterB) {
		t.Error("Remove of non-member returned true")
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
	if !r.Remove(adapterA) {
		t.Error("Remove of member returned false")
	}
	if r.IsTrusted(adapterA) {
		t.Error("removed adapter still trusted")
	}
}

func TestList_InsertionOrderStable(t *testing.T) {
	r := New()
	r.Add(adapterB, "axelar")
	r.Add(adapterA, "wormhole")
	r.Add(adapterC, "hyperlane")
	r.Remove(adapterA)

	got := r.List()
	want := []message.Address{adapterB, adapterC}
	if len(got) != len(want) {
		t.Fatalf("List len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	// Re-adding goes to the end, not its old slot.
	r.Add(adapterA, "wormhole")
	got = r.List()
	if got[len(got)-1] != adapterA {
		t.Errorf("re-added adapter not at end: %v", got)
	}
}

func TestClone_Independent(t *testing.T) {
	r := New()
	r.Add(adapterA, "wormhole")

	c := r.Clone()
	c.Add(adapterB, "axelar")
	c.Remove(adapterA)

	if !r.IsTrusted(adapterA) {
		t.Error("mutating clone removed member from original")
	}
	if r.IsTrusted(adapterB) {
		t.Error("mutating clone added member to original")
	}
}

func TestSnapshot(t *testing.T) {
	r := New()
	r.Add(adapterA, "wormhole")
	r.Add(adapterB, "axelar")

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(snap))
	}
	if snap[0] != (Adapter{Identity: adapterA, Name: "wormhole"}) {
		t.Errorf("Snapshot[0] = %+v", snap[0])
	}
	if snap[1] != (Adapter{Identity: adapterB, Name: "axelar"}) {
		t.Errorf("Snapshot[1] = %+v", snap[1])
	}
}
