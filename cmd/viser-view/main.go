package main

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"

	"github.com/Limardi/viser/internal/config"
	"github.com/Limardi/viser/internal/graphics"
)

const (
	windowWidth  = 1200
	windowHeight = 800
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if err := glfw.Init(); err != nil {
		closer.Fatalln("glfw init:", err)
	}
	closer.Bind(glfw.Terminate)

	window, err := setupWindow()
	if err != nil {
		closer.Fatalln("window setup:", err)
	}

	renderer, err := graphics.NewRenderer()
	if err != nil {
		closer.Fatalln("renderer:", err)
	}
	closer.Bind(renderer.Dispose)

	exhibits, err := buildExhibits()
	if err != nil {
		closer.Fatalln("demo scene:", err)
	}
	closer.Bind(func() {
		for _, ex := range exhibits {
			ex.frustum.Dispose()
		}
	})

	app := newApp(window, renderer, exhibits)
	app.setupInputHandlers()
	app.run()

	closer.Close()
}

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Samples, config.GetMSAASamples())

	window, err := glfw.CreateWindow(windowWidth, windowHeight, "viser", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(0)

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	if config.GetMSAASamples() > 1 {
		gl.Enable(gl.MULTISAMPLE)
	}
	return window, nil
}
