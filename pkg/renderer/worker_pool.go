package renderer

import (
	"image"
	"runtime"
	"sync"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/integrator"
)

// TileTask is one tile of one frame. Tasks of the same frame cover
// disjoint pixel ranges, so workers write to the shared accumulator
// without locks.
type TileTask struct {
	Bounds     image.Rectangle
	Frame      CameraFrame
	FrameIndex int
	Pixels     *Accumulator
	done       *sync.WaitGroup
}

// WorkerPool renders tiles on a fixed set of goroutines that live for
// the whole render session.
type WorkerPool struct {
	scene      core.Scene
	integrator integrator.Integrator
	tasks      chan TileTask
	numWorkers int
	wg         sync.WaitGroup
}

// NewWorkerPool creates a pool sized for the given image. numWorkers 0
// means one worker per CPU.
func NewWorkerPool(scene core.Scene, integ integrator.Integrator, width, height, tileSize, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	return &WorkerPool{
		scene:      scene,
		integrator: integ,
		tasks:      make(chan TileTask, tilesX*tilesY),
		numWorkers: numWorkers,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

// Stop shuts the pool down after in-flight tasks finish
func (wp *WorkerPool) Stop() {
	close(wp.tasks)
	wp.wg.Wait()
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// RenderFrame distributes one frame's tiles and blocks until every tile
// has been merged into the accumulator.
func (wp *WorkerPool) RenderFrame(frame CameraFrame, frameIndex int, acc *Accumulator, tiles []image.Rectangle) {
	var done sync.WaitGroup
	for _, bounds := range tiles {
		done.Add(1)
		wp.tasks <- TileTask{
			Bounds:     bounds,
			Frame:      frame,
			FrameIndex: frameIndex,
			Pixels:     acc,
			done:       &done,
		}
	}
	done.Wait()
}

// run is the worker loop
func (wp *WorkerPool) run() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		wp.renderTile(task)
		task.done.Done()
	}
}

// renderTile traces exactly one path per pixel. The sampler seed pairs
// the pixel index with the frame index so every pixel draws an
// independent stream each frame.
func (wp *WorkerPool) renderTile(task TileTask) {
	for y := task.Bounds.Min.Y; y < task.Bounds.Max.Y; y++ {
		for x := task.Bounds.Min.X; x < task.Bounds.Max.X; x++ {
			pixelIndex := uint32(y*task.Frame.Width + x)
			sampler := core.NewPCG(pixelIndex, uint32(task.FrameIndex))

			ray := task.Frame.GenerateRay(x, y, sampler.Get2D())
			color := wp.integrator.RayColor(ray, wp.scene, sampler)
			task.Pixels.Pixel(x, y).AddSample(color)
		}
	}
}

// Tiles covers a width x height image with tileSize x tileSize
// rectangles, clipped at the image edges.
func Tiles(width, height, tileSize int) []image.Rectangle {
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	tiles := make([]image.Rectangle, 0, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0 := tx * tileSize
			y0 := ty * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)
			tiles = append(tiles, image.Rect(x0, y0, x1, y1))
		}
	}
	return tiles
}
