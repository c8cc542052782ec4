package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// OrbitCamera circles a target point; mouse drags adjust yaw/pitch and the
// scroll wheel adjusts distance.
type OrbitCamera struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32 // radians around +Y
	Pitch    float32 // radians above the horizon

	AspectRatio float32
	FOV         float32 // degrees
	NearPlane   float32
	FarPlane    float32
}

func NewOrbitCamera(width, height int) *OrbitCamera {
	return &OrbitCamera{
		Distance:    6.0,
		Yaw:         0.6,
		Pitch:       0.35,
		AspectRatio: float32(width) / float32(height),
		FOV:         60.0,
		NearPlane:   0.05,
		FarPlane:    200.0,
	}
}

// Position returns the eye position on the orbit sphere.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return c.Target.Add(mgl32.Vec3{
		c.Distance * cp * float32(math.Sin(float64(c.Yaw))),
		c.Distance * float32(math.Sin(float64(c.Pitch))),
		c.Distance * cp * float32(math.Cos(float64(c.Yaw))),
	})
}

func (c *OrbitCamera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *OrbitCamera) GetProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

// Orbit applies a mouse drag in pixels. Pitch clamps just short of the
// poles so the up vector stays valid.
func (c *OrbitCamera) Orbit(dx, dy float64) {
	const sensitivity = 0.008
	c.Yaw -= float32(dx * sensitivity)
	c.Pitch += float32(dy * sensitivity)

	limit := float32(math.Pi/2 - 0.01)
	if c.Pitch > limit {
		c.Pitch = limit
	}
	if c.Pitch < -limit {
		c.Pitch = -limit
	}
}

// Zoom applies scroll input, keeping the camera off the target point.
func (c *OrbitCamera) Zoom(delta float64) {
	c.Distance *= float32(math.Pow(0.9, delta))
	if c.Distance < 0.2 {
		c.Distance = 0.2
	}
	if c.Distance > 100 {
		c.Distance = 100
	}
}

// SetViewport updates the aspect ratio after a framebuffer resize.
func (c *OrbitCamera) SetViewport(width, height int) {
	if height > 0 {
		c.AspectRatio = float32(width) / float32(height)
	}
}

// InverseViewProjection returns the double-precision inverse used to
// unproject cursor positions for picking.
func (c *OrbitCamera) InverseViewProjection() mgl64.Mat4 {
	vp := c.GetProjectionMatrix().Mul4(c.GetViewMatrix())
	var vp64 mgl64.Mat4
	for i := 0; i < 16; i++ {
		vp64[i] = float64(vp[i])
	}
	return vp64.Inv()
}
