package renderer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/integrator"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Config controls the progressive frame loop
type Config struct {
	TileSize   int // pixels per tile side
	MaxSamples int // frames to accumulate; 0 means run until cancelled
	NumWorkers int // parallel workers; 0 means one per CPU
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		TileSize:   64,
		MaxSamples: 64,
		NumWorkers: 0,
	}
}

// FrameResult reports one completed frame
type FrameResult struct {
	FrameIndex int           // monotonic loop index, also the sampler seed
	Samples    int           // samples per pixel in the running estimate
	Image      *image.RGBA   // tone-mapped snapshot of the estimate
	Elapsed    time.Duration // wall time spent tracing this frame
	IsLast     bool
}

// ProgressiveRenderer drives the frame-sequential render loop. Every
// frame traces one path per pixel and merges into the accumulator
// before the next frame starts; a camera epoch change between frames
// resets the accumulator. Cancellation applies between frames, never
// inside one.
type ProgressiveRenderer struct {
	scene      core.Scene
	camera     *Camera
	acc        *Accumulator
	pool       *WorkerPool
	config     Config
	logger     core.Logger
	frameIndex int
	lastEpoch  uint64
}

// NewProgressiveRenderer creates a renderer sized from the camera's
// current resolution.
func NewProgressiveRenderer(scene core.Scene, camera *Camera, integ integrator.Integrator, config Config, logger core.Logger) *ProgressiveRenderer {
	if config.TileSize <= 0 {
		config.TileSize = 64
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}
	cfg := camera.Config()

	return &ProgressiveRenderer{
		scene:  scene,
		camera: camera,
		acc:    NewAccumulator(cfg.Width, cfg.Height),
		pool:   NewWorkerPool(scene, integ, cfg.Width, cfg.Height, config.TileSize, config.NumWorkers),
		config: config,
		logger: logger,
	}
}

// Accumulator returns the running estimate. Callers must only read it
// between frames, which for channel consumers means after receiving a
// FrameResult and before the next one.
func (pr *ProgressiveRenderer) Accumulator() *Accumulator {
	return pr.acc
}

// Camera returns the camera driving primary rays
func (pr *ProgressiveRenderer) Camera() *Camera {
	return pr.camera
}

// RenderProgressive runs the frame loop on a goroutine and streams
// results. The frame channel closes when the loop ends; the error
// channel then yields the terminating error, if any.
func (pr *ProgressiveRenderer) RenderProgressive(ctx context.Context) (<-chan FrameResult, <-chan error) {
	frameChan := make(chan FrameResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(frameChan)
		defer close(errChan)

		pr.pool.Start()
		defer pr.pool.Stop()

		pr.logger.Printf("Rendering %dx%d, tile size %d, %d workers\n",
			pr.acc.Width(), pr.acc.Height(), pr.config.TileSize, pr.pool.NumWorkers())

		for {
			select {
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			default:
			}

			result := pr.renderFrame()

			pr.logger.Printf("Frame %d merged: %d samples/pixel in %v\n",
				result.FrameIndex, result.Samples, result.Elapsed)

			select {
			case frameChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if result.IsLast {
				return
			}
		}
	}()

	return frameChan, errChan
}

// renderFrame traces one full frame and merges it
func (pr *ProgressiveRenderer) renderFrame() FrameResult {
	frame := pr.camera.Frame()
	if frame.Epoch != pr.lastEpoch {
		pr.acc.Reset()
		pr.lastEpoch = frame.Epoch
	}
	if frame.Width != pr.acc.Width() || frame.Height != pr.acc.Height() {
		pr.acc = NewAccumulator(frame.Width, frame.Height)
	}

	start := time.Now()
	tiles := Tiles(frame.Width, frame.Height, pr.config.TileSize)
	pr.pool.RenderFrame(frame, pr.frameIndex, pr.acc, tiles)
	pr.acc.AdvanceFrame()

	index := pr.frameIndex
	pr.frameIndex++

	samples := pr.acc.Frames()
	return FrameResult{
		FrameIndex: index,
		Samples:    samples,
		Image:      pr.acc.Image(),
		Elapsed:    time.Since(start),
		IsLast:     pr.config.MaxSamples > 0 && samples >= pr.config.MaxSamples,
	}
}

// Render runs the loop to MaxSamples and returns the final image
func (pr *ProgressiveRenderer) Render(ctx context.Context) (*image.RGBA, error) {
	if pr.config.MaxSamples <= 0 {
		return nil, fmt.Errorf("render: MaxSamples must be positive for a bounded render")
	}

	frames, errs := pr.RenderProgressive(ctx)
	var last *image.RGBA
	for frame := range frames {
		last = frame.Image
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	return last, nil
}
