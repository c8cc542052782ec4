package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/Limardi/viser/internal/graphics"
	"github.com/Limardi/viser/internal/picking"
	"github.com/Limardi/viser/pkg/gltfexport"
)

func (a *app) setupInputHandlers() {
	a.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		a.fbWidth = width
		a.fbHeight = height
		a.camera.SetViewport(width, height)
	})

	a.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		a.cursorX = xpos
		a.cursorY = ypos
		if a.dragging {
			a.camera.Orbit(xpos-a.lastDragX, ypos-a.lastDragY)
			a.lastDragX = xpos
			a.lastDragY = ypos
		}
	})

	a.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			a.dragging = true
			a.lastDragX, a.lastDragY = w.GetCursorPos()
		case glfw.Release:
			a.dragging = false
		}
	})

	a.window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		a.camera.Zoom(yoff)
	})

	a.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyS:
			a.saveScreenshot()
		case glfw.KeyE:
			a.exportScene()
		}
	})
}

// pickExhibit returns the index of the exhibit under the cursor, or -1.
// It tests the ray against the bounds of last frame's emitted subtrees.
func (a *app) pickExhibit() int {
	if a.fbWidth == 0 || a.fbHeight == 0 {
		return -1
	}
	// Cursor coordinates are in screen units; scale to framebuffer pixels
	// for HiDPI displays before converting to NDC.
	ww, wh := a.window.GetSize()
	if ww == 0 || wh == 0 {
		return -1
	}
	ndcX := 2*a.cursorX/float64(ww) - 1
	ndcY := 1 - 2*a.cursorY/float64(wh)

	ray := picking.FromNDC(a.camera.InverseViewProjection(), ndcX, ndcY)
	return picking.Nearest(ray, a.lastRoots)
}

func (a *app) saveScreenshot() {
	name := fmt.Sprintf("viser-%s.webp", time.Now().Format("20060102-150405"))
	f, err := os.Create(name)
	if err != nil {
		fmt.Println("screenshot:", err)
		return
	}
	defer f.Close()
	if err := graphics.CaptureFrame(f, a.fbWidth, a.fbHeight); err != nil {
		fmt.Println("screenshot:", err)
		return
	}
	fmt.Println("saved", name)
}

func (a *app) exportScene() {
	name := fmt.Sprintf("viser-%s.gltf", time.Now().Format("20060102-150405"))
	if err := gltfexport.Save(name, a.lastRoots...); err != nil {
		fmt.Println("export:", err)
		return
	}
	fmt.Println("exported", name)
}
