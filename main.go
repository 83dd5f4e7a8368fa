/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"image/color"
	"os"
	"os/signal"
	"syscall"

	"github.com/quartzite/prism/engine/config"
	"github.com/quartzite/prism/engine/core"
	"github.com/quartzite/prism/engine/gpu/gl"
	"github.com/quartzite/prism/engine/math"
	"github.com/quartzite/prism/engine/media"
	"github.com/quartzite/prism/engine/platform"
	"github.com/quartzite/prism/engine/player"
	"github.com/quartzite/prism/engine/scene"
)

const configPath = "prism.toml"

func main() {
	cfg := config.Default()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	plat, err := platform.New(nil)
	if err != nil {
		panic(err)
	}
	if err := plat.Startup(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height, cfg.Window.Resizable); err != nil {
		panic(err)
	}
	defer plat.Shutdown()

	backend, err := gl.New()
	if err != nil {
		panic(err)
	}

	p, err := player.New(player.Options{
		Config:  cfg,
		Backend: backend,
	})
	if err != nil {
		panic(err)
	}
	defer p.Dispose()

	if err := p.UpdateScene(demoTracks(cfg)); err != nil {
		panic(err)
	}
	p.Play()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		plat.RequestClose()
	}()

	width, height := plat.FramebufferSize()
	for !plat.ShouldClose() {
		plat.PumpMessages()
		if w, h := plat.FramebufferSize(); w != width || h != height {
			width, height = w, h
			p.Resize(width, height)
		}
		p.Step()
		plat.SwapBuffers()
	}

	core.LogInfo("shutting down")
}

// demoTracks builds a small self-contained timeline so the binary shows
// something without any media on disk.
func demoTracks(cfg config.Config) []player.Track {
	w := float32(cfg.Window.Width)
	h := float32(cfg.Window.Height)

	return []player.Track{
		{
			ID:      "background",
			Name:    "Background",
			Visible: true,
			Clips: []player.Clip{
				{
					ID:        "bg",
					Kind:      scene.KindShape,
					StartTime: 0,
					Duration:  30,
					Position:  math.NewVec3(0, 0, 0),
					Size:      math.NewVec2(w, h),
					Opacity:   1,
					Shape: media.ShapeSpec{
						Kind:   media.ShapeRect,
						Width:  int(w),
						Height: int(h),
						Fill:   color.RGBA{R: 24, G: 26, B: 34, A: 255},
					},
				},
			},
		},
		{
			ID:      "foreground",
			Name:    "Foreground",
			Visible: true,
			Clips: []player.Clip{
				{
					ID:        "badge",
					Kind:      scene.KindShape,
					StartTime: 0,
					Duration:  30,
					Position:  math.NewVec3(w/2-160, h/2-160, 0),
					Size:      math.NewVec2(320, 320),
					Opacity:   0.9,
					Shape: media.ShapeSpec{
						Kind:         media.ShapeRoundedRect,
						Width:        320,
						Height:       320,
						Fill:         color.RGBA{R: 92, G: 128, B: 255, A: 255},
						CornerRadius: 48,
					},
				},
				{
					ID:        "pulse",
					Kind:      scene.KindShape,
					StartTime: 2,
					Duration:  26,
					Position:  math.NewVec3(w/2-60, h/2-60, 0),
					Size:      math.NewVec2(120, 120),
					Opacity:   0.8,
					Shape: media.ShapeSpec{
						Kind:   media.ShapeEllipse,
						Width:  120,
						Height: 120,
						Fill:   color.RGBA{R: 255, G: 196, B: 92, A: 255},
					},
				},
			},
		},
	}
}
