package main

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Limardi/viser/internal/config"
	"github.com/Limardi/viser/internal/frustum"
	"github.com/Limardi/viser/internal/graphics"
	"github.com/Limardi/viser/internal/profiling"
	"github.com/Limardi/viser/internal/scene"
)

// exhibit is one frustum placed in the demo scene. The hovered flag is the
// backing store for the component's hover accessor.
type exhibit struct {
	name     string
	position mgl64.Vec3
	frustum  *frustum.Frustum
	hovered  bool
}

type app struct {
	window   *glfw.Window
	renderer *graphics.Renderer
	camera   *graphics.OrbitCamera
	exhibits []*exhibit

	// Subtrees emitted last frame, parallel to exhibits. Picking tests
	// against these so hover lags the cursor by at most one frame.
	lastRoots []*scene.Node

	cursorX, cursorY float64
	dragging         bool
	lastDragX        float64
	lastDragY        float64

	fbWidth  int
	fbHeight int
}

func newApp(window *glfw.Window, renderer *graphics.Renderer, exhibits []*exhibit) *app {
	w, h := window.GetFramebufferSize()
	return &app{
		window:    window,
		renderer:  renderer,
		camera:    graphics.NewOrbitCamera(w, h),
		exhibits:  exhibits,
		lastRoots: make([]*scene.Node, len(exhibits)),
		fbWidth:   w,
		fbHeight:  h,
	}
}

func (a *app) run() {
	limiter := newFrameLimiter()
	frames := 0
	lastFPSCheck := time.Now()
	lastTime := time.Now()
	start := time.Now()
	var frame uint64

	for !a.window.ShouldClose() {
		profiling.ResetFrame()
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now
		frame++

		a.updateHover()

		ctx := scene.RenderContext{
			Frame: frame,
			Time:  now.Sub(start).Seconds(),
			DT:    dt,
		}
		roots := make([]*scene.Node, len(a.exhibits))
		for i, ex := range a.exhibits {
			wrapper := scene.NewNode(ex.name)
			wrapper.Position = ex.position
			wrapper.Add(ex.frustum.Render(ctx))
			roots[i] = wrapper
		}
		a.lastRoots = roots

		gl.Viewport(0, 0, int32(a.fbWidth), int32(a.fbHeight))
		gl.ClearColor(0.10, 0.11, 0.13, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		func() {
			defer profiling.Track("renderer.Draw")()
			a.renderer.Draw(roots, a.camera)
		}()

		func() { defer profiling.Track("glfw.SwapBuffers")(); a.window.SwapBuffers() }()
		func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

		frames++
		if time.Since(lastFPSCheck) >= time.Second {
			fmt.Printf("FPS: %d  |  %s\n", frames, profiling.TopN(3))
			frames = 0
			lastFPSCheck = time.Now()
		}

		limiter.Wait()
	}
}

// updateHover casts a ray through the cursor and marks the nearest exhibit.
func (a *app) updateHover() {
	defer profiling.Track("picking.Hover")()

	for _, ex := range a.exhibits {
		ex.hovered = false
	}
	idx := a.pickExhibit()
	if idx >= 0 {
		a.exhibits[idx].hovered = true
	}
}

// frameLimiter paces the loop to the configured FPS cap. Sleeps stop short
// of the deadline and the remainder is spun, which holds the cap much
// tighter than a bare time.Sleep.
type frameLimiter struct {
	next time.Time
}

func newFrameLimiter() *frameLimiter {
	return &frameLimiter{}
}

func (f *frameLimiter) Wait() {
	limit := config.GetFPSLimit()
	if limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)
	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
		if time.Until(f.next) <= 0 {
			break
		}
	}

	// After a hitch, resync instead of sprinting to catch up.
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}
