// Package config holds runtime-adjustable viewer settings.
package config

import "sync"

// ViewerSettings holds render configuration
type ViewerSettings struct {
	mu               sync.RWMutex
	fpsLimit         int
	highlightColor   [3]uint8
	hoverWidthFactor float64
	msaaSamples      int
}

var globalViewerSettings = &ViewerSettings{
	fpsLimit:         120,
	highlightColor:   [3]uint8{251, 255, 0}, // hover yellow
	hoverWidthFactor: 1.5,
	msaaSamples:      4,
}

// GetFPSLimit returns the frame rate cap; 0 means uncapped.
func GetFPSLimit() int {
	globalViewerSettings.mu.RLock()
	defer globalViewerSettings.mu.RUnlock()
	return globalViewerSettings.fpsLimit
}

// SetFPSLimit sets the frame rate cap.
func SetFPSLimit(limit int) {
	globalViewerSettings.mu.Lock()
	defer globalViewerSettings.mu.Unlock()

	// Clamp to reasonable values
	if limit < 0 {
		limit = 0
	}
	if limit > 480 {
		limit = 480
	}

	globalViewerSettings.fpsLimit = limit
}

// GetHighlightColor returns the color applied to hovered frustums.
func GetHighlightColor() [3]uint8 {
	globalViewerSettings.mu.RLock()
	defer globalViewerSettings.mu.RUnlock()
	return globalViewerSettings.highlightColor
}

// SetHighlightColor sets the hover highlight color.
func SetHighlightColor(color [3]uint8) {
	globalViewerSettings.mu.Lock()
	defer globalViewerSettings.mu.Unlock()
	globalViewerSettings.highlightColor = color
}

// GetHoverWidthFactor returns the flat-line width multiplier while hovered.
func GetHoverWidthFactor() float64 {
	globalViewerSettings.mu.RLock()
	defer globalViewerSettings.mu.RUnlock()
	return globalViewerSettings.hoverWidthFactor
}

// SetHoverWidthFactor sets the flat-line width multiplier while hovered.
func SetHoverWidthFactor(factor float64) {
	globalViewerSettings.mu.Lock()
	defer globalViewerSettings.mu.Unlock()

	if factor < 1 {
		factor = 1
	}
	if factor > 4 {
		factor = 4
	}

	globalViewerSettings.hoverWidthFactor = factor
}

// GetMSAASamples returns the multisample count requested for the window.
func GetMSAASamples() int {
	globalViewerSettings.mu.RLock()
	defer globalViewerSettings.mu.RUnlock()
	return globalViewerSettings.msaaSamples
}

// SetMSAASamples sets the multisample count requested for the window.
func SetMSAASamples(samples int) {
	globalViewerSettings.mu.Lock()
	defer globalViewerSettings.mu.Unlock()

	if samples < 0 {
		samples = 0
	}
	if samples > 16 {
		samples = 16
	}

	globalViewerSettings.msaaSamples = samples
}
