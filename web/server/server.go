package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/loaders"
	"github.com/renderloop/pathtrace/pkg/renderer"
	"github.com/renderloop/pathtrace/pkg/scene"
)

// DefaultTileSize is the tile edge used by web renders
const DefaultTileSize = 64

// Server handles web requests for the progressive path tracer. It owns
// one scene and one camera; every connected viewer shares them, so a
// camera move or a scene reload is observed by all active streams.
type Server struct {
	port      int
	scenePath string // empty serves the built-in Cornell box
	staticDir string
	logger    core.Logger

	camera *renderer.Camera

	mu    sync.Mutex
	scene *scene.Scene
	home  renderer.CameraConfig // placement restored by camera reset
	gen   uint64                // bumped on every scene reload
}

// NewServer creates a web server rendering the scene at scenePath, or
// the built-in Cornell box when the path is empty.
func NewServer(port int, scenePath string, logger core.Logger) (*Server, error) {
	if logger == nil {
		logger = renderer.NewDefaultLogger()
	}

	sceneObj, err := loadServerScene(scenePath)
	if err != nil {
		return nil, err
	}
	camera, err := renderer.NewCamera(sceneObj.Camera)
	if err != nil {
		return nil, fmt.Errorf("scene camera: %w", err)
	}

	return &Server{
		port:      port,
		scenePath: scenePath,
		staticDir: "static",
		logger:    logger,
		camera:    camera,
		scene:     sceneObj,
		home:      sceneObj.Camera,
	}, nil
}

func loadServerScene(path string) (*scene.Scene, error) {
	if path == "" {
		return scene.NewCornellScene(), nil
	}
	return loaders.LoadScene(path)
}

// Handler returns the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scene", s.handleSceneInfo)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/camera/move", s.handleCameraMove)
	mux.HandleFunc("/api/camera/look", s.handleCameraLook)
	mux.HandleFunc("/api/camera/reset", s.handleCameraReset)
	return mux
}

// Start serves until the listener fails or ctx is cancelled. A scene
// loaded from disk is watched for changes while the server runs.
func (s *Server) Start(ctx context.Context) error {
	if s.scenePath != "" {
		go s.watchScene(ctx)
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%d", s.port), Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	s.logger.Printf("Serving on http://localhost:%d\n", s.port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// snapshot returns the current scene and its reload generation
func (s *Server) snapshot() (*scene.Scene, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene, s.gen
}

func (s *Server) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Server) homeConfig() renderer.CameraConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.home
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleSceneInfo returns the current scene and camera state plus the
// parameter limits the render endpoint accepts.
func (s *Server) handleSceneInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sceneObj, gen := s.snapshot()
	cfg := s.camera.Config()

	source := s.scenePath
	if source == "" {
		source = "cornell"
	}

	response := map[string]interface{}{
		"source":         source,
		"generation":     gen,
		"primitives":     sceneObj.PrimitiveCount(),
		"lights":         sceneObj.LightCount(),
		"hasEnvironment": sceneObj.HasEnvironment(),
		"camera": map[string]interface{}{
			"width":  cfg.Width,
			"height": cfg.Height,
			"fov":    cfg.FOV,
			"from":   [3]float32{cfg.From.X, cfg.From.Y, cfg.From.Z},
			"to":     [3]float32{cfg.To.X, cfg.To.Y, cfg.To.Z},
			"up":     [3]float32{cfg.Up.X, cfg.Up.Y, cfg.Up.Z},
			"flipX":  cfg.FlipX,
		},
		"limits": map[string]interface{}{
			"width":        map[string]int{"min": 64, "max": 4096},
			"height":       map[string]int{"min": 64, "max": 4096},
			"maxSamples":   map[string]int{"min": 1, "max": 4096},
			"previewWidth": map[string]int{"min": 16, "max": 2048},
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %v and %v, got: %v", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
