package core

// Number of recent frame times kept for the sliding average.
const frameWindow = 120

// How often, in seconds, the published FPS reading is refreshed. Refreshing
// every frame makes the number too noisy to read.
const fpsRefreshInterval = 0.5

// FrameStats tracks frame timing over a sliding window. One instance is owned
// by each render loop; it is not shared across sessions.
type FrameStats struct {
	times      [frameWindow]float64
	count      int
	head       int
	sinceFlush float64
	fps        float64
	msAvg      float64
	frames     uint64
}

func NewFrameStats() *FrameStats {
	return &FrameStats{}
}

// RecordFrame accumulates one frame's delta time, in seconds.
func (fs *FrameStats) RecordFrame(delta float64) {
	fs.times[fs.head] = delta
	fs.head = (fs.head + 1) % frameWindow
	if fs.count < frameWindow {
		fs.count++
	}
	fs.frames++

	fs.sinceFlush += delta
	if fs.sinceFlush >= fpsRefreshInterval {
		fs.flush()
		fs.sinceFlush = 0
	}
}

func (fs *FrameStats) flush() {
	if fs.count == 0 {
		return
	}
	var total float64
	for i := 0; i < fs.count; i++ {
		total += fs.times[i]
	}
	avg := total / float64(fs.count)
	fs.msAvg = avg * 1000.0
	if avg > 0 {
		fs.fps = 1.0 / avg
	}
}

// FPS returns the last published frames-per-second reading.
func (fs *FrameStats) FPS() float64 {
	return fs.fps
}

// FrameTimeMS returns the last published average frame time in milliseconds.
func (fs *FrameStats) FrameTimeMS() float64 {
	return fs.msAvg
}

// TotalFrames returns the number of frames recorded since creation.
func (fs *FrameStats) TotalFrames() uint64 {
	return fs.frames
}

// Reset clears the window and published readings.
func (fs *FrameStats) Reset() {
	*fs = FrameStats{}
}
