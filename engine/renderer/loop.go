package renderer

import (
	"github.com/quartzite/prism/engine/core"
)

type TimestepMode int

const (
	// TimestepVariable feeds the raw frame delta to updates.
	TimestepVariable TimestepMode = iota
	// TimestepFixed accumulates real time and runs updates in fixed
	// slices, the right mode when update logic must be deterministic.
	TimestepFixed
)

type LoopConfig struct {
	Mode       TimestepMode
	FixedDelta float64
	// MaxUpdates caps catch-up updates per frame under fixed timestep so
	// a long stall never turns into an update death spiral.
	MaxUpdates int
	// MaxDelta clamps a single frame's delta; a 3 second debugger pause
	// should not advance the scene 3 seconds in one update.
	MaxDelta float64
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Mode:       TimestepVariable,
		FixedDelta: 1.0 / 60,
		MaxUpdates: 5,
		MaxDelta:   0.25,
	}
}

type UpdateFunc func(delta float64)

// RenderFunc draws a frame. Under fixed timestep alpha is the fraction of a
// fixed step left in the accumulator, for hosts that interpolate between
// update states; variable timestep always passes 1.
type RenderFunc func(alpha float64)

/**
 * @brief Drives update and render callbacks from wall-clock time.
 *
 * The loop itself never blocks; the host calls Step once per display frame
 * (vsync, CVDisplayLink, whatever the platform gives) and the loop turns
 * real elapsed time into update calls. Tick is the same entry with an
 * explicit delta, which is what tests use.
 */
type Loop struct {
	config LoopConfig

	clock core.Clock
	stats *core.FrameStats

	update UpdateFunc
	render RenderFunc

	running     bool
	paused      bool
	accumulator float64
}

func NewLoop(config LoopConfig, update UpdateFunc, render RenderFunc) *Loop {
	if config.FixedDelta <= 0 {
		config.FixedDelta = 1.0 / 60
	}
	if config.MaxUpdates <= 0 {
		config.MaxUpdates = 5
	}
	if config.MaxDelta <= 0 {
		config.MaxDelta = 0.25
	}
	return &Loop{
		config: config,
		stats:  core.NewFrameStats(),
		update: update,
		render: render,
	}
}

func (l *Loop) Running() bool { return l.running }
func (l *Loop) Paused() bool  { return l.paused }

// Start begins timing. Calling Start on a running loop does nothing.
func (l *Loop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.paused = false
	l.accumulator = 0
	l.clock.Start()
	l.stats.Reset()
}

func (l *Loop) Stop() {
	if !l.running {
		return
	}
	l.running = false
	l.clock.Stop()
}

func (l *Loop) Pause() {
	if !l.running || l.paused {
		return
	}
	l.paused = true
}

// Resume restarts timing from now, so the pause itself never shows up as a
// giant delta.
func (l *Loop) Resume() {
	if !l.running || !l.paused {
		return
	}
	l.paused = false
	l.accumulator = 0
	l.clock.Start()
}

// Step measures elapsed wall time and advances the loop by it.
func (l *Loop) Step() {
	if !l.running || l.paused {
		return
	}
	l.clock.Update()
	l.Tick(l.clock.Delta())
}

// Tick advances the loop by an explicit delta in seconds.
func (l *Loop) Tick(delta float64) {
	if !l.running || l.paused {
		return
	}
	if delta < 0 {
		delta = 0
	}
	if delta > l.config.MaxDelta {
		delta = l.config.MaxDelta
	}
	l.stats.RecordFrame(delta)

	alpha := 1.0
	switch l.config.Mode {
	case TimestepFixed:
		l.accumulator += delta
		updates := 0
		for l.accumulator >= l.config.FixedDelta && updates < l.config.MaxUpdates {
			l.update(l.config.FixedDelta)
			l.accumulator -= l.config.FixedDelta
			updates++
		}
		// Whatever backlog the cap left behind is dropped; carrying it
		// would just hit the cap again next frame.
		if l.accumulator > l.config.FixedDelta {
			l.accumulator = l.config.FixedDelta
		}
		alpha = l.accumulator / l.config.FixedDelta
	default:
		l.update(delta)
	}

	l.render(alpha)
}

// Accumulator exposes the fixed-timestep backlog, in seconds.
func (l *Loop) Accumulator() float64 { return l.accumulator }

func (l *Loop) FPS() float64 { return l.stats.FPS() }

func (l *Loop) FrameTimeMS() float64 { return l.stats.FrameTimeMS() }

func (l *Loop) TotalFrames() uint64 { return l.stats.TotalFrames() }
