// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package config loads a gpu.Config from a TOML file, for front-ends
// that prefer file-based configuration over constructing gpu.Config
// in code.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/nope-engine/ngl/gpu"
)

// fileConfig mirrors gpu.Config with string-tagged enums, the shape a
// human-edited TOML file actually takes.
type fileConfig struct {
	Backend       string     `toml:"backend"`
	Platform      string     `toml:"platform"`
	Display       uintptr    `toml:"display"`
	Window        uintptr    `toml:"window"`
	Handle        uintptr    `toml:"handle"`
	Offscreen     bool       `toml:"offscreen"`
	Width         int        `toml:"width"`
	Height        int        `toml:"height"`
	Samples       int        `toml:"samples"`
	ClearColor    [4]float32 `toml:"clear_color"`
	SetSurfacePTS bool       `toml:"set_surface_pts"`
	HUD           bool       `toml:"hud"`
}

var backends = map[string]gpu.Backend{
	"opengl":   gpu.OpenGL,
	"opengles": gpu.OpenGLES,
	"vulkan":   gpu.Vulkan,
}

var platforms = map[string]gpu.Platform{
	"":        gpu.AutoPlatform,
	"auto":    gpu.AutoPlatform,
	"xlib":    gpu.Xlib,
	"wayland": gpu.Wayland,
	"macos":   gpu.MacOS,
	"ios":     gpu.IOS,
	"android": gpu.Android,
	"windows": gpu.Windows,
}

// Load reads and parses the TOML file at path into a gpu.Config.
func Load(path string) (gpu.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gpu.Config{}, err
	}
	return Parse(data)
}

// Parse decodes TOML-formatted data into a gpu.Config.
func Parse(data []byte) (gpu.Config, error) {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return gpu.Config{}, fmt.Errorf("config: %w", err)
	}
	backend, ok := backends[fc.Backend]
	if !ok {
		return gpu.Config{}, fmt.Errorf("config: unrecognized backend %q", fc.Backend)
	}
	platform, ok := platforms[fc.Platform]
	if !ok {
		return gpu.Config{}, fmt.Errorf("config: unrecognized platform %q", fc.Platform)
	}
	return gpu.Config{
		Backend:       backend,
		Platform:      platform,
		Display:       fc.Display,
		Window:        fc.Window,
		Handle:        fc.Handle,
		Offscreen:     fc.Offscreen,
		Width:         fc.Width,
		Height:        fc.Height,
		Samples:       fc.Samples,
		ClearColor:    fc.ClearColor,
		SetSurfacePTS: fc.SetSurfacePTS,
		HUD:           fc.HUD,
	}, nil
}
