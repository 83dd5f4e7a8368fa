package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type WindowConfig struct {
	Title     string `toml:"title"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Resizable bool   `toml:"resizable"`
}

type RendererConfig struct {
	// Timestep is "variable" or "fixed".
	Timestep      string     `toml:"timestep"`
	TargetFPS     int        `toml:"target_fps"`
	BatchByShader bool       `toml:"batch_by_shader"`
	ClearColor    [4]float32 `toml:"clear_color"`
}

type CacheConfig struct {
	MaxTextures  int `toml:"max_textures"`
	MaxTextureMB int `toml:"max_texture_mb"`
}

type ShaderConfig struct {
	WatchDir string `toml:"watch_dir"`
}

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Cache    CacheConfig    `toml:"cache"`
	Shaders  ShaderConfig   `toml:"shaders"`
}

func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:     "Prism",
			Width:     1280,
			Height:    720,
			Resizable: true,
		},
		Renderer: RendererConfig{
			Timestep:   "variable",
			TargetFPS:  60,
			ClearColor: [4]float32{0, 0, 0, 1},
		},
		Cache: CacheConfig{
			MaxTextures:  64,
			MaxTextureMB: 256,
		},
	}
}

// Load reads a TOML file over the defaults, so a partial file only overrides
// what it names.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.Timestep != "variable" && c.Renderer.Timestep != "fixed" {
		return fmt.Errorf("timestep %q, want variable or fixed", c.Renderer.Timestep)
	}
	if c.Renderer.TargetFPS <= 0 {
		return fmt.Errorf("target fps %d", c.Renderer.TargetFPS)
	}
	if c.Cache.MaxTextures < 0 || c.Cache.MaxTextureMB < 0 {
		return fmt.Errorf("negative cache budget")
	}
	return nil
}
