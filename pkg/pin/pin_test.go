package pin

import (
	"testing"
	"time"

	"streamflow/pkg/models"
)

func ix(id string, amountCents int64, createdAt time.Time, pinnedUntil *time.Time) models.Interaction {
	return models.Interaction{
		ID:          id,
		StreamID:    "s1",
		UserID:      "u1",
		Kind:        models.KindChat,
		Content:     "hi",
		AmountCents: amountCents,
		CreatedAt:   createdAt,
		PinnedUntil: pinnedUntil,
	}
}

func TestIsPinnedBoundary(t *testing.T) {
	now := time.Now().UTC()
	until := now.Add(60 * time.Second)
	i := ix("a", 100, now, &until)

	if !IsPinned(i, now) {
		t.Fatal("should be pinned inside window")
	}
	if !IsPinned(i, until.Add(-time.Nanosecond)) {
		t.Fatal("should be pinned just before expiry")
	}
	// exclusive boundary: not pinned at the exact expiry instant
	if IsPinned(i, until) {
		t.Fatal("must not be pinned at the exact expiry instant")
	}
	if IsPinned(i, until.Add(time.Second)) {
		t.Fatal("must not be pinned after expiry")
	}
}

func TestIsPinnedNilWindow(t *testing.T) {
	i := ix("a", 0, time.Now().UTC(), nil)
	if IsPinned(i, time.Now().UTC()) {
		t.Fatal("free message must never be pinned")
	}
}

func TestSelectOrdering(t *testing.T) {
	now := time.Now().UTC()
	until := now.Add(time.Hour)
	expired := now.Add(-time.Minute)

	vip := ix("vip", 2500, now.Add(-3*time.Minute), &until)
	premiumOld := ix("prem-old", 1000, now.Add(-2*time.Minute), &until)
	premiumNew := ix("prem-new", 1000, now.Add(-1*time.Minute), &until)
	gone := ix("gone", 2500, now.Add(-2*time.Hour), &expired)
	free := ix("free", 0, now, nil)

	got := Select([]models.Interaction{premiumOld, free, gone, vip, premiumNew}, now)
	want := []string{"vip", "prem-new", "prem-old"}
	if len(got) != len(want) {
		t.Fatalf("got %d pinned, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSelectEmpty(t *testing.T) {
	if got := Select(nil, time.Now().UTC()); len(got) != 0 {
		t.Fatalf("expected no pins, got %d", len(got))
	}
}
