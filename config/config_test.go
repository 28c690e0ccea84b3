// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package config

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
)

func TestParse(t *testing.T) {
	data := []byte(`
backend = "vulkan"
platform = "wayland"
offscreen = true
width = 640
height = 480
samples = 4
clear_color = [0.1, 0.2, 0.3, 1.0]
hud = true
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Backend != gpu.Vulkan {
		t.Errorf("Backend = %v, want Vulkan", cfg.Backend)
	}
	if cfg.Platform != gpu.Wayland {
		t.Errorf("Platform = %v, want Wayland", cfg.Platform)
	}
	if !cfg.Offscreen || cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("Offscreen/Width/Height = %v/%d/%d, want true/640/480", cfg.Offscreen, cfg.Width, cfg.Height)
	}
	if cfg.Samples != 4 {
		t.Errorf("Samples = %d, want 4", cfg.Samples)
	}
	if !cfg.HUD {
		t.Error("HUD = false, want true")
	}
}

func TestParseDefaultPlatform(t *testing.T) {
	cfg, err := Parse([]byte(`backend = "opengl"`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Platform != gpu.AutoPlatform {
		t.Errorf("Platform = %v, want AutoPlatform when omitted", cfg.Platform)
	}
}

func TestParseUnrecognizedBackend(t *testing.T) {
	if _, err := Parse([]byte(`backend = "metal"`)); err == nil {
		t.Fatal("Parse: expected error for unrecognized backend")
	}
}

func TestParseUnrecognizedPlatform(t *testing.T) {
	if _, err := Parse([]byte(`backend = "opengl"
platform = "fuchsia"`)); err == nil {
		t.Fatal("Parse: expected error for unrecognized platform")
	}
}
