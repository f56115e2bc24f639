package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()
	bus := New()

	ch, unsub := bus.Subscribe(4)
	defer unsub()

	bus.Publish(Event{Type: TypeMeetingFired, Data: MeetingEvent{Meeting: "standup"}})

	select {
	case e := <-ch:
		if e.Type != TypeMeetingFired {
			t.Errorf("event type = %q", e.Type)
		}
		if e.Time.IsZero() {
			t.Error("publish did not stamp the event time")
		}
		if me, ok := e.Data.(MeetingEvent); !ok || me.Meeting != "standup" {
			t.Errorf("event data = %#v", e.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	t.Parallel()
	bus := New()

	ch, unsub := bus.Subscribe(1)
	defer unsub()

	// The second publish must not block even though nobody drains.
	done := make(chan struct{})
	go func() {
		bus.Publish(Event{Type: TypeMeetingFired})
		bus.Publish(Event{Type: TypeMeetingSkipped})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if e := <-ch; e.Type != TypeMeetingFired {
		t.Errorf("first buffered event = %q", e.Type)
	}
	select {
	case e := <-ch:
		t.Errorf("overflow event delivered: %q", e.Type)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	bus := New()

	ch, unsub := bus.Subscribe(1)
	unsub()

	// Publishing after unsubscribe must neither panic nor deliver.
	bus.Publish(Event{Type: TypeConfigReloaded})

	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
}
