package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHubDeliversToEveryConnectionOfUser(t *testing.T) {
	h := NewHub(zerolog.Nop())
	a := h.Register("u1")
	b := h.Register("u1")
	other := h.Register("u2")

	h.Deliver(Notification{Type: FollowRequested, UserID: "u1"})

	for _, c := range []*Client{a, b} {
		select {
		case n := <-c.Send:
			if n.Type != FollowRequested {
				t.Fatalf("unexpected notification %+v", n)
			}
		default:
			t.Fatal("expected a notification")
		}
	}
	select {
	case n := <-other.Send:
		t.Fatalf("u2 must not receive u1's notification, got %+v", n)
	default:
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := h.Register("u1")
	for i := 0; i < clientBuffer+5; i++ {
		h.Deliver(Notification{Type: EventInvited, UserID: "u1"})
	}
	if len(c.Send) != clientBuffer {
		t.Fatalf("expected full buffer of %d got %d", clientBuffer, len(c.Send))
	}
}

func TestHubUnregister(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := h.Register("u1")
	h.Unregister(c)
	h.Unregister(c)

	if _, ok := <-c.Send; ok {
		t.Fatal("expected closed channel")
	}
	if h.Connections("u1") != 0 {
		t.Fatal("expected no connections")
	}
	h.Deliver(Notification{UserID: "u1"})
}

func TestNopBus(t *testing.T) {
	var bus Bus = NopBus{}
	if err := bus.Publish(context.Background(), Notification{UserID: "u"}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := bus.Subscribe(ctx, func(Notification) {}); err != nil {
		t.Fatal(err)
	}
}

func TestStampSetsTime(t *testing.T) {
	n := stamp(Notification{})
	if n.CreatedAt.IsZero() {
		t.Fatal("expected timestamp")
	}
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if stamp(Notification{CreatedAt: fixed}).CreatedAt != fixed {
		t.Fatal("expected existing timestamp kept")
	}
}
