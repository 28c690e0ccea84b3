// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"runtime"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwMu guards glfw.Init/Terminate reference counting: GLFW is
// a process-wide library, and Init/Terminate are not meant to be
// paired with every window that needs one.
var (
	glfwMu    sync.Mutex
	glfwUsers int
)

// AcquireGLFW increments the process-wide GLFW usage count,
// calling glfw.Init on the first acquire. A gpu/gl device's
// hidden context window and an onscreen GLFWWindow both acquire
// independently; every acquire must be paired with ReleaseGLFW.
func AcquireGLFW() error {
	glfwMu.Lock()
	defer glfwMu.Unlock()
	if glfwUsers == 0 {
		runtime.LockOSThread()
		if err := glfw.Init(); err != nil {
			return err
		}
	}
	glfwUsers++
	return nil
}

// ReleaseGLFW decrements the usage count, calling glfw.Terminate
// once the last user releases.
func ReleaseGLFW() {
	glfwMu.Lock()
	defer glfwMu.Unlock()
	glfwUsers--
	if glfwUsers == 0 {
		glfw.Terminate()
	}
}

// GLFWWindow is a Window backed by a real, visible GLFW window.
// It exists because go-gl/glfw has no entry point to bind a GL
// context to a foreign native window handle: a GL Presenter that
// needs to present onscreen has no choice but to own a window
// outright, rather than adopt one described by Display/
// WindowHandle/NativeHandle the way the Vulkan backend's surface
// creation can. Platform always reports AutoPlatform for it, and
// Display/WindowHandle/NativeHandle stay at zero.
type GLFWWindow struct {
	win *glfw.Window
}

// NewGLFWWindow creates a visible window of the given size,
// sharing its GL context with share (which may be nil).
func NewGLFWWindow(width, height int, title string, share *glfw.Window) (*GLFWWindow, error) {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	if err := AcquireGLFW(); err != nil {
		return nil, err
	}
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	win, err := glfw.CreateWindow(width, height, title, nil, share)
	if err != nil {
		ReleaseGLFW()
		return nil, err
	}
	return &GLFWWindow{win: win}, nil
}

// GL returns the underlying *glfw.Window, for a backend that
// needs to make it current or swap its buffers.
func (w *GLFWWindow) GL() *glfw.Window { return w.win }

// Close destroys the window and releases the GLFW reference it
// holds.
func (w *GLFWWindow) Close() {
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
		ReleaseGLFW()
	}
}

func (w *GLFWWindow) Platform() Platform    { return AutoPlatform }
func (w *GLFWWindow) Display() uintptr      { return 0 }
func (w *GLFWWindow) WindowHandle() uintptr { return 0 }
func (w *GLFWWindow) NativeHandle() uintptr { return 0 }

func (w *GLFWWindow) Width() int {
	width, _ := w.win.GetSize()
	return width
}

func (w *GLFWWindow) Height() int {
	_, height := w.win.GetSize()
	return height
}
