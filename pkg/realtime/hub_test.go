package realtime

import (
	"testing"
	"time"

	"streamflow/pkg/models"
)

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestPublishFanOut(t *testing.T) {
	h := NewHub(8)
	a := h.Subscribe("s1")
	b := h.Subscribe("s1")
	other := h.Subscribe("s2")
	defer a.Unsubscribe()
	defer b.Unsubscribe()
	defer other.Unsubscribe()

	ix := models.Interaction{ID: "i1", StreamID: "s1", Kind: models.KindChat, Content: "hi"}
	h.PublishInteraction(ix)

	for _, sub := range []*Subscription{a, b} {
		ev := recvEvent(t, sub.Events())
		if ev.Type != EventInteraction || ev.Interaction == nil || ev.Interaction.ID != "i1" {
			t.Fatalf("bad event: %+v", ev)
		}
	}
	select {
	case ev := <-other.Events():
		t.Fatalf("event leaked across streams: %+v", ev)
	default:
	}
}

func TestPublishOrder(t *testing.T) {
	h := NewHub(16)
	sub := h.Subscribe("s1")
	defer sub.Unsubscribe()

	for i := 0; i < 5; i++ {
		h.PublishInteraction(models.Interaction{ID: string(rune('a' + i)), StreamID: "s1"})
	}
	for i := 0; i < 5; i++ {
		ev := recvEvent(t, sub.Events())
		if want := string(rune('a' + i)); ev.Interaction.ID != want {
			t.Fatalf("out of order: got %s, want %s", ev.Interaction.ID, want)
		}
	}
}

func TestSlowSubscriberDropped(t *testing.T) {
	h := NewHub(1)
	slow := h.Subscribe("s1")
	fast := h.Subscribe("s1")
	defer fast.Unsubscribe()

	// fill slow's buffer, then overflow it; also drain fast to keep it alive
	h.PublishInteraction(models.Interaction{ID: "1", StreamID: "s1"})
	recvEvent(t, fast.Events())
	h.PublishInteraction(models.Interaction{ID: "2", StreamID: "s1"})
	recvEvent(t, fast.Events())

	// slow is now closed; draining it must terminate
	n := 0
	for range slow.Events() {
		n++
	}
	if n != 1 {
		t.Fatalf("slow subscriber kept %d events, want the 1 buffered", n)
	}

	// fast subscriber still receives
	h.PublishInteraction(models.Interaction{ID: "3", StreamID: "s1"})
	if ev := recvEvent(t, fast.Events()); ev.Interaction.ID != "3" {
		t.Fatalf("fast subscriber broken: %+v", ev)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	h := NewHub(4)
	sub := h.Subscribe("s1")
	sub.Unsubscribe()
	sub.Unsubscribe() // must not panic

	// publish after unsubscribe must not panic either
	h.PublishInteraction(models.Interaction{ID: "x", StreamID: "s1"})
}

func TestPresenceJoinLeave(t *testing.T) {
	h := NewHub(8)
	sub := h.Subscribe("s1")
	defer sub.Unsubscribe()

	h.Join("s1", "conn1", models.PresenceEntry{UserID: "u1", Username: "alice"})
	ev := recvEvent(t, sub.Events())
	if ev.Type != EventPresence || ev.Presence.Action != "join" || ev.Presence.Count != 1 {
		t.Fatalf("bad join event: %+v", ev)
	}

	// same user from a second tab is a second connection
	h.Join("s1", "conn2", models.PresenceEntry{UserID: "u1", Username: "alice"})
	ev = recvEvent(t, sub.Events())
	if ev.Presence.Count != 2 {
		t.Fatalf("second connection not counted: %+v", ev.Presence)
	}
	if h.PresenceCount("s1") != 2 {
		t.Fatalf("PresenceCount = %d, want 2", h.PresenceCount("s1"))
	}

	h.Leave("s1", "conn1")
	ev = recvEvent(t, sub.Events())
	if ev.Presence.Action != "leave" || ev.Presence.Count != 1 {
		t.Fatalf("bad leave event: %+v", ev)
	}

	// leave is idempotent
	h.Leave("s1", "conn1")
	select {
	case ev := <-sub.Events():
		t.Fatalf("duplicate leave published: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	if got := len(h.Viewers("s1")); got != 1 {
		t.Fatalf("Viewers = %d, want 1", got)
	}
}
