package realtime

import (
	"testing"
)

func TestBroadcaster_PublishDeliversToSubscriber(t *testing.T) {
	b := NewBroadcaster[string]()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish("board")
	got := <-ch
	if got != "board" {
		t.Errorf("got event %q, want %q", got, "board")
	}
}

func TestBroadcaster_PublishDeliversToMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster[string]()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Publish("winners")
	if got := <-ch1; got != "winners" {
		t.Errorf("ch1 got %q, want winners", got)
	}
	if got := <-ch2; got != "winners" {
		t.Errorf("ch2 got %q, want winners", got)
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster[int]()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	_, open := <-ch
	if open {
		t.Error("channel should be closed after Unsubscribe")
	}
	// Second unsubscribe is a no-op.
	b.Unsubscribe(ch)
}

func TestBroadcaster_PublishDropsWhenSubscriberLags(t *testing.T) {
	b := NewBroadcaster[int]()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(i)
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered %d events, want %d", len(ch), subscriberBuffer)
	}
	if got := <-ch; got != 0 {
		t.Errorf("first event %d, want 0", got)
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster[string]()
	ch := b.Subscribe()
	b.Close()
	if _, open := <-ch; open {
		t.Error("subscriber channel should be closed by Close")
	}
	late := b.Subscribe()
	if _, open := <-late; open {
		t.Error("Subscribe after Close should return a closed channel")
	}
	b.Close()
	b.Publish("ignored")
}
