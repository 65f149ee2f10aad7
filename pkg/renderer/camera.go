package renderer

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
)

const (
	moveSpeed = 0.1
	nearPlane = 0.001
	farPlane  = 10000.0
)

// CameraConfig describes a perspective camera placement
type CameraConfig struct {
	Width  int
	Height int
	FOV    float32 // vertical field of view in degrees
	From   core.Vec3
	To     core.Vec3
	Up     core.Vec3
	FlipX  bool
}

// DefaultCameraConfig returns the standard 1080p placement
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Width:  1920,
		Height: 1080,
		FOV:    45,
		From:   core.NewVec3(0, 1, 4),
		To:     core.NewVec3(0, 1, 0),
		Up:     core.NewVec3(0, 1, 0),
	}
}

// Camera generates primary rays from cached inverse view and projection
// matrices. Every placement change bumps an epoch counter; the renderer
// resets accumulation when the epoch changes between frames.
type Camera struct {
	mu     sync.Mutex
	config CameraConfig
	frame  CameraFrame
}

// CameraFrame is an immutable snapshot of the camera taken once per
// frame, so movement mid-frame never tears a ray batch.
type CameraFrame struct {
	InvView core.Matrix
	InvProj core.Matrix
	Width   int
	Height  int
	Epoch   uint64
}

// NewCamera builds a camera from a placement. Degenerate placements
// (zero resolution, view direction parallel to up) are rejected.
func NewCamera(config CameraConfig) (*Camera, error) {
	c := &Camera{config: config}
	if err := c.rebuild(); err != nil {
		return nil, err
	}
	return c, nil
}

// rebuild recomputes the cached matrices from c.config. Callers hold mu.
func (c *Camera) rebuild() error {
	cfg := c.config
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("camera: invalid resolution %dx%d", cfg.Width, cfg.Height)
	}

	view := core.LookAt(cfg.From, cfg.To, cfg.Up)
	invView, ok := view.Inverse()
	if !ok {
		return fmt.Errorf("camera: view matrix is singular (from %v to %v)", cfg.From, cfg.To)
	}

	aspect := float32(cfg.Width) / float32(cfg.Height)
	proj := core.Perspective(cfg.FOV, aspect, nearPlane, farPlane)
	if cfg.FlipX {
		proj.E[0] = -proj.E[0]
	}
	invProj, ok := proj.Inverse()
	if !ok {
		return fmt.Errorf("camera: projection is singular (fov %v)", cfg.FOV)
	}

	c.frame = CameraFrame{
		InvView: invView,
		InvProj: invProj,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Epoch:   c.frame.Epoch + 1,
	}
	return nil
}

// Frame returns the current snapshot
func (c *Camera) Frame() CameraFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Config returns a copy of the current placement
func (c *Camera) Config() CameraConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetConfig replaces the placement wholesale, keeping the old one when
// the new placement cannot be rendered.
func (c *Camera) SetConfig(config CameraConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.config
	c.config = config
	if err := c.rebuild(); err != nil {
		c.config = prev
		return err
	}
	return nil
}

// Move translates the camera along its local axes: dx strafes right, dy
// moves up, dz moves forward. Units are multiples of the move speed.
func (c *Camera) Move(dx, dy, dz float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	forward := c.config.To.Subtract(c.config.From).Normalize()
	right := forward.Cross(c.config.Up).Normalize()
	up := right.Cross(forward)

	delta := right.Multiply(dx * moveSpeed).
		Add(up.Multiply(dy * moveSpeed)).
		Add(forward.Multiply(dz * moveSpeed))

	prev := c.config
	c.config.From = c.config.From.Add(delta)
	c.config.To = c.config.To.Add(delta)
	if err := c.rebuild(); err != nil {
		c.config = prev
		return err
	}
	return nil
}

// Rotate turns the view direction by yaw then pitch, in degrees. Pitch
// is clamped short of the poles so the view never degenerates.
func (c *Camera) Rotate(yawDeg, pitchDeg float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := c.config.To.Subtract(c.config.From)
	dist := dir.Length()
	dir = dir.Normalize()

	yaw := math32.Atan2(dir.X, dir.Z)
	pitch := math32.Asin(clamp(dir.Y, -1, 1))

	yaw += yawDeg * math32.Pi / 180
	pitch += pitchDeg * math32.Pi / 180
	const maxPitch = 89 * math32.Pi / 180
	pitch = clamp(pitch, -maxPitch, maxPitch)

	cp := math32.Cos(pitch)
	dir = core.NewVec3(cp*math32.Sin(yaw), math32.Sin(pitch), cp*math32.Cos(yaw))

	prev := c.config
	c.config.To = c.config.From.Add(dir.Multiply(dist))
	if err := c.rebuild(); err != nil {
		c.config = prev
		return err
	}
	return nil
}

// GenerateRay builds the primary ray through pixel (px, py). jitter in
// [0,1)^2 places the sample inside the pixel; (0.5, 0.5) is the center.
func (f CameraFrame) GenerateRay(px, py int, jitter core.Vec2) core.Ray {
	ndcX := 2*(float32(px)+jitter.X)/float32(f.Width) - 1
	ndcY := 1 - 2*(float32(py)+jitter.Y)/float32(f.Height)

	// Unproject a far-plane point, then rotate the view-space direction
	// into the world
	target := f.InvProj.MulPoint(core.NewVec3(ndcX, ndcY, 1))
	origin := f.InvView.MulPoint(core.Vec3{})
	direction := f.InvView.MulVec(target).Normalize()

	return core.NewRay(origin, direction)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
