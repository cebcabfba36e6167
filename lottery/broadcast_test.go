package lottery

import (
	"context"
	"testing"
	"time"
)

func recvUpdate(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before update arrived")
		}
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
	return Update{}
}

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster(4)
	ctx := context.Background()

	ch1, cancel1 := b.Listen(ctx)
	defer cancel1()
	ch2, cancel2 := b.Listen(ctx)
	defer cancel2()

	b.Send(Update{Type: UpdateSnapshot, TotalTickets: 9})

	// Every listener receives every update, not just one of them.
	for i, ch := range []<-chan Update{ch1, ch2} {
		u := recvUpdate(t, ch)
		if u.Type != UpdateSnapshot || u.TotalTickets != 9 {
			t.Errorf("listener %d got %+v, want snapshot update", i+1, u)
		}
	}
}

func TestBroadcasterCancelUnregisters(t *testing.T) {
	b := NewBroadcaster(4)
	ctx := context.Background()

	ch1, cancel1 := b.Listen(ctx)
	ch2, cancel2 := b.Listen(ctx)
	defer cancel2()

	cancel1()
	// Wait for the listener channel to close.
	for {
		if _, ok := <-ch1; !ok {
			break
		}
	}

	b.Send(Update{Type: UpdateEntry})
	if u := recvUpdate(t, ch2); u.Type != UpdateEntry {
		t.Errorf("surviving listener got %+v, want entry update", u)
	}
}

func TestBroadcasterSlowListenerDrops(t *testing.T) {
	b := NewBroadcaster(1)
	ctx := context.Background()

	ch, cancel := b.Listen(ctx)
	defer cancel()

	b.Send(Update{Type: UpdateEntry})
	b.Send(Update{Type: UpdateConfig}) // buffer full, dropped

	if u := recvUpdate(t, ch); u.Type != UpdateEntry {
		t.Errorf("got %+v, want the first update", u)
	}
	select {
	case u := <-ch:
		t.Errorf("unexpected second update %+v", u)
	default:
	}
}
