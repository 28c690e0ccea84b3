// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package devwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchShaderDirFiltersByExtension(t *testing.T) {
	dir := t.TempDir()

	w, err := WatchShaderDir(dir, ".frag", ".vert")
	if err != nil {
		t.Fatalf("WatchShaderDir: %v", err)
	}
	defer w.Close()

	ignored := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(ignored, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	watched := filepath.Join(dir, "main.frag")
	if err := os.WriteFile(watched, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-w.Changed():
		if path != watched {
			t.Errorf("Changed: got %q, want %q", path, watched)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Changed: timed out waiting for the watched extension's event")
	}
}

func TestMatches(t *testing.T) {
	if !matches("shader.frag", nil) {
		t.Error("matches with no extension filter should accept everything")
	}
	if !matches("shader.frag", []string{".vert", ".frag"}) {
		t.Error("matches: want true for a listed extension")
	}
	if matches("shader.glsl", []string{".vert", ".frag"}) {
		t.Error("matches: want false for an unlisted extension")
	}
}
