package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/anthonynsimon/bild/transform"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/integrator"
	"github.com/renderloop/pathtrace/pkg/renderer"
	"github.com/renderloop/pathtrace/pkg/scene"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Width        int `json:"width"`        // 0 keeps the camera resolution
	Height       int `json:"height"`       // 0 keeps the camera resolution
	MaxSamples   int `json:"maxSamples"`   // samples per pixel to accumulate
	PreviewWidth int `json:"previewWidth"` // 0 streams full-size frames
}

// FrameUpdate is one progressive frame sent via SSE. ImageData holds
// the tone-mapped estimate, downscaled to PreviewWidth when requested;
// Width and Height are always the full render resolution.
type FrameUpdate struct {
	FrameIndex int    `json:"frameIndex"`
	Samples    int    `json:"samples"`
	MaxSamples int    `json:"maxSamples"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ImageData  string `json:"imageData"` // base64 encoded PNG
	ElapsedMs  int64  `json:"elapsedMs"`
	IsComplete bool   `json:"isComplete"`
}

// SceneUpdate announces which scene a stream is rendering. It is sent
// when the stream starts and again after every live reload.
type SceneUpdate struct {
	Source     string `json:"source"`
	Generation uint64 `json:"generation"`
	Primitives int    `json:"primitives"`
	Lights     int    `json:"lights"`
}

// handleRender streams progressive frames via SSE. The stream restarts
// from a fresh accumulator when the watcher swaps the scene, and ends
// once the estimate reaches MaxSamples or the client disconnects.
// Camera moves during the stream reset accumulation without ending it.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.sendSSEError(w, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	if err := s.applyResolution(req); err != nil {
		s.sendSSEError(w, fmt.Sprintf("Invalid resolution: %v", err))
		return
	}

	consoleChan := make(chan ConsoleMessage, 50)
	logger := NewWebLogger(s.logger, consoleChan)

	start := time.Now()
	for {
		sceneObj, gen := s.snapshot()
		s.sendSceneUpdate(w, sceneObj, gen)

		restart, err := s.streamFrames(ctx, w, req, sceneObj, gen, logger, consoleChan, start)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.sendSSEError(w, fmt.Sprintf("Render failed: %v", err))
			}
			return
		}
		if !restart {
			break
		}
	}

	s.sendSSEEvent(w, "complete", "Rendering completed")
}

// streamFrames runs one renderer over one scene snapshot and writes
// frame and console events. It reports restart=true when the scene
// generation changed mid-stream.
func (s *Server) streamFrames(ctx context.Context, w http.ResponseWriter, req *RenderRequest,
	sceneObj *scene.Scene, gen uint64, logger core.Logger, consoleChan chan ConsoleMessage, start time.Time) (bool, error) {

	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	config := renderer.Config{
		TileSize:   DefaultTileSize,
		MaxSamples: req.MaxSamples,
	}
	pr := renderer.NewProgressiveRenderer(sceneObj, s.camera, integrator.NewPathTracingIntegrator(), config, logger)
	frames, errs := pr.RenderProgressive(renderCtx)

	// stop cancels the render loop and waits for it to finish
	stop := func() error {
		cancel()
		for range frames {
		}
		return <-errs
	}

	for {
		select {
		case msg := <-consoleChan:
			s.sendConsoleMessage(w, msg)

		case frame, ok := <-frames:
			if !ok {
				return false, <-errs
			}
			if s.generation() != gen {
				stop()
				return true, nil
			}
			if err := s.sendFrameUpdate(w, req, frame, start); err != nil {
				stop()
				return false, err
			}

		case <-ctx.Done():
			return false, stop()
		}
	}
}

// sendFrameUpdate encodes a frame as base64 PNG and writes a progress
// event. The image is downscaled first when a preview width is set.
func (s *Server) sendFrameUpdate(w http.ResponseWriter, req *RenderRequest, frame renderer.FrameResult, start time.Time) error {
	bounds := frame.Image.Bounds()

	var img image.Image = frame.Image
	if req.PreviewWidth > 0 && req.PreviewWidth < bounds.Dx() {
		previewHeight := bounds.Dy() * req.PreviewWidth / bounds.Dx()
		if previewHeight < 1 {
			previewHeight = 1
		}
		img = transform.Resize(img, req.PreviewWidth, previewHeight, transform.Linear)
	}

	imageData, err := s.imageToBase64PNG(img)
	if err != nil {
		return fmt.Errorf("encoding frame %d: %w", frame.FrameIndex, err)
	}

	update := FrameUpdate{
		FrameIndex: frame.FrameIndex,
		Samples:    frame.Samples,
		MaxSamples: req.MaxSamples,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		ImageData:  imageData,
		ElapsedMs:  time.Since(start).Milliseconds(),
		IsComplete: frame.IsLast,
	}

	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return s.sendSSEEvent(w, "progress", string(data))
}

// sendSceneUpdate writes a scene event describing the stream's source
func (s *Server) sendSceneUpdate(w http.ResponseWriter, sceneObj *scene.Scene, gen uint64) {
	source := s.scenePath
	if source == "" {
		source = "cornell"
	}
	data, err := json.Marshal(SceneUpdate{
		Source:     source,
		Generation: gen,
		Primitives: sceneObj.PrimitiveCount(),
		Lights:     sceneObj.LightCount(),
	})
	if err != nil {
		return
	}
	s.sendSSEEvent(w, "scene", string(data))
}

// sendConsoleMessage writes a console event
func (s *Server) sendConsoleMessage(w http.ResponseWriter, msg ConsoleMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.sendSSEEvent(w, "console", string(data))
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}

	var err error
	if req.Width, err = parseIntParam(r.URL.Query(), "width", 0, 64, 4096); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(r.URL.Query(), "height", 0, 64, 4096); err != nil {
		return nil, err
	}
	if req.MaxSamples, err = parseIntParam(r.URL.Query(), "maxSamples", 256, 1, 4096); err != nil {
		return nil, err
	}
	if req.PreviewWidth, err = parseIntParam(r.URL.Query(), "previewWidth", 0, 16, 2048); err != nil {
		return nil, err
	}

	return req, nil
}

// applyResolution points the shared camera at the requested resolution.
// Other active streams observe the epoch bump and reset.
func (s *Server) applyResolution(req *RenderRequest) error {
	if req.Width == 0 && req.Height == 0 {
		return nil
	}

	cfg := s.camera.Config()
	width, height := cfg.Width, cfg.Height
	if req.Width > 0 {
		width = req.Width
	}
	if req.Height > 0 {
		height = req.Height
	}
	if width == cfg.Width && height == cfg.Height {
		return nil
	}

	cfg.Width, cfg.Height = width, height
	return s.camera.SetConfig(cfg)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, event, data string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming not supported")
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// sendSSEError sends an error via SSE
func (s *Server) sendSSEError(w http.ResponseWriter, message string) {
	s.sendSSEEvent(w, "error", message)
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
