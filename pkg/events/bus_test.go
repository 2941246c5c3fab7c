package events

import (
	"testing"

	"github.com/jscyril/sonicstream/api"
)

func TestSubscribeReceivesOnlyItsType(t *testing.T) {
	bus := NewEventBus()
	ended := bus.Subscribe(api.EventEnded)

	bus.Publish(api.MediaEvent{Type: api.EventTimeUpdate})
	bus.Publish(api.MediaEvent{Type: api.EventEnded, Generation: 3})

	select {
	case ev := <-ended:
		if ev.Type != api.EventEnded || ev.Generation != 3 {
			t.Errorf("got %+v, want ended event of generation 3", ev)
		}
	default:
		t.Fatal("expected an ended event")
	}

	select {
	case ev := <-ended:
		t.Errorf("unexpected extra event %+v", ev)
	default:
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := NewEventBus()
	all := bus.SubscribeAll()

	for _, eventType := range api.AllEventTypes() {
		bus.Publish(api.MediaEvent{Type: eventType})
	}

	if got := len(all); got != len(api.AllEventTypes()) {
		t.Errorf("received %d events, want %d", got, len(api.AllEventTypes()))
	}
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := NewEventBus()
	_ = bus.Subscribe(api.EventTimeUpdate)

	for i := 0; i < 100; i++ {
		bus.Publish(api.MediaEvent{Type: api.EventTimeUpdate})
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus()
	all := bus.SubscribeAll()

	bus.Unsubscribe(all)
	if _, ok := <-all; ok {
		t.Error("channel should be closed after Unsubscribe")
	}

	// Publishing after unsubscribe must not panic on the closed channel
	bus.Publish(api.MediaEvent{Type: api.EventLoaded})
}

func TestCloseClosesSharedChannelOnce(t *testing.T) {
	bus := NewEventBus()
	all := bus.SubscribeAll()
	one := bus.Subscribe(api.EventError)

	bus.Close()

	if _, ok := <-all; ok {
		t.Error("SubscribeAll channel should be closed")
	}
	if _, ok := <-one; ok {
		t.Error("Subscribe channel should be closed")
	}

	late := bus.Subscribe(api.EventLoaded)
	if _, ok := <-late; ok {
		t.Error("subscribing to a closed bus should yield a closed channel")
	}
}
