package core

import "testing"

func TestEventBusFireOrderAndStop(t *testing.T) {
	bus := NewEventBus()
	first := &struct{}{}
	second := &struct{}{}

	var calls []string
	bus.Register(EventSceneChanged, first, func(code EventCode, sender interface{}, data EventContext) bool {
		calls = append(calls, "first")
		return true
	})
	bus.Register(EventSceneChanged, second, func(code EventCode, sender interface{}, data EventContext) bool {
		calls = append(calls, "second")
		return false
	})

	if !bus.Fire(EventSceneChanged, nil, EventContext{}) {
		t.Fatal("expected a handler to consume the event")
	}
	if len(calls) != 1 || calls[0] != "first" {
		t.Fatalf("propagation should stop at the first consuming handler, got %v", calls)
	}
}

func TestEventBusDuplicateListener(t *testing.T) {
	bus := NewEventBus()
	listener := &struct{}{}

	handler := func(code EventCode, sender interface{}, data EventContext) bool { return false }
	if !bus.Register(EventResized, listener, handler) {
		t.Fatal("first registration should succeed")
	}
	if bus.Register(EventResized, listener, handler) {
		t.Fatal("duplicate listener/code registration should be rejected")
	}

	fired := 0
	other := &struct{}{}
	bus.Register(EventResized, other, func(code EventCode, sender interface{}, data EventContext) bool {
		fired++
		return false
	})
	bus.Fire(EventResized, nil, EventContext{Width: 640, Height: 480})
	if fired != 1 {
		t.Fatalf("expected the second listener to fire once, got %d", fired)
	}
}

func TestEventBusUnregister(t *testing.T) {
	bus := NewEventBus()
	listener := &struct{}{}

	fired := 0
	bus.Register(EventNodeAdded, listener, func(code EventCode, sender interface{}, data EventContext) bool {
		fired++
		return false
	})
	if !bus.Unregister(EventNodeAdded, listener) {
		t.Fatal("unregister of a known listener should succeed")
	}
	if bus.Unregister(EventNodeAdded, listener) {
		t.Fatal("unregister of an unknown listener should fail")
	}

	bus.Fire(EventNodeAdded, nil, EventContext{Data: "n1"})
	if fired != 0 {
		t.Fatalf("unregistered listener fired %d times", fired)
	}
}

func TestFrameStatsPublishesAfterInterval(t *testing.T) {
	fs := NewFrameStats()

	// Below the refresh interval nothing is published yet.
	for i := 0; i < 10; i++ {
		fs.RecordFrame(0.016)
	}
	if fs.FPS() != 0 {
		t.Fatalf("expected no FPS reading before the refresh interval, got %f", fs.FPS())
	}

	for i := 0; i < 30; i++ {
		fs.RecordFrame(0.016)
	}
	fps := fs.FPS()
	if fps < 60 || fps > 65 {
		t.Fatalf("expected roughly 62.5 fps for 16ms frames, got %f", fps)
	}
	ms := fs.FrameTimeMS()
	if ms < 15.9 || ms > 16.1 {
		t.Fatalf("expected 16ms average frame time, got %f", ms)
	}
	if fs.TotalFrames() != 40 {
		t.Fatalf("expected 40 recorded frames, got %d", fs.TotalFrames())
	}
}

func TestFrameStatsReset(t *testing.T) {
	fs := NewFrameStats()
	for i := 0; i < 60; i++ {
		fs.RecordFrame(0.02)
	}
	fs.Reset()
	if fs.FPS() != 0 || fs.FrameTimeMS() != 0 || fs.TotalFrames() != 0 {
		t.Fatal("reset should clear all published readings")
	}
}

func TestClockLifecycle(t *testing.T) {
	c := NewClock()

	// Updates before Start are no-ops.
	c.Update()
	if c.Elapsed() != 0 || c.Delta() != 0 {
		t.Fatal("non-started clock should report zero")
	}

	c.Start()
	c.Update()
	if c.Elapsed() < 0 {
		t.Fatal("elapsed must not be negative")
	}

	c.Stop()
	elapsed := c.Elapsed()
	c.Update()
	if c.Elapsed() != elapsed {
		t.Fatal("stopped clock should not advance")
	}
}
