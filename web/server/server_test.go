package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{}

func (quietLogger) Printf(format string, args ...interface{}) {}

// quadSceneJSON is a single grey quad at the origin viewed from above
const quadSceneJSON = `{
	"camera": {"width": 64, "height": 48, "fov": 45, "from": [0, 3, 0], "to": [0, 0, 0], "up": [0, 0, 1]},
	"textures": [{"name": "grey", "color": [0.8, 0.8, 0.8]}],
	"materials": [{"name": "matte", "kind": "diffuse", "texture": "grey"}],
	"instances": [{"mesh": "quad", "material": "matte"}]
}`

// twoQuadSceneJSON doubles the geometry and moves the camera
const twoQuadSceneJSON = `{
	"camera": {"width": 64, "height": 48, "fov": 45, "from": [5, 3, 0], "to": [0, 0, 0], "up": [0, 0, 1]},
	"textures": [{"name": "grey", "color": [0.8, 0.8, 0.8]}],
	"materials": [{"name": "matte", "kind": "diffuse", "texture": "grey"}],
	"instances": [
		{"mesh": "quad", "material": "matte"},
		{"mesh": "quad", "material": "matte", "transform": {"translate": [0, 1, 0]}}
	]
}`

func writeScene(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newCornellServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(0, "", quietLogger{})
	require.NoError(t, err)
	return s
}

func newQuadServer(t *testing.T) (*Server, string) {
	t.Helper()
	path := writeScene(t, quadSceneJSON)
	s, err := NewServer(0, path, quietLogger{})
	require.NoError(t, err)
	return s, path
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestNewServer_RejectsBrokenScene(t *testing.T) {
	_, err := NewServer(0, filepath.Join(t.TempDir(), "missing.json"), quietLogger{})
	require.Error(t, err)

	path := writeScene(t, `{"instances": [{"mesh": "nope"}]}`)
	_, err = NewServer(0, path, quietLogger{})
	require.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	ts := httptest.NewServer(newCornellServer(t).Handler())
	defer ts.Close()

	var body map[string]string
	status := getJSON(t, ts.URL+"/api/health", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestHandleSceneInfo(t *testing.T) {
	ts := httptest.NewServer(newCornellServer(t).Handler())
	defer ts.Close()

	var body struct {
		Source         string `json:"source"`
		Generation     uint64 `json:"generation"`
		Primitives     int    `json:"primitives"`
		Lights         int    `json:"lights"`
		HasEnvironment bool   `json:"hasEnvironment"`
		Camera         struct {
			Width  int     `json:"width"`
			Height int     `json:"height"`
			FOV    float32 `json:"fov"`
		} `json:"camera"`
	}
	status := getJSON(t, ts.URL+"/api/scene", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "cornell", body.Source)
	assert.Equal(t, uint64(0), body.Generation)
	assert.Equal(t, 36, body.Primitives)
	assert.Equal(t, 2, body.Lights)
	assert.False(t, body.HasEnvironment)
	assert.Equal(t, 400, body.Camera.Width)
	assert.Equal(t, 400, body.Camera.Height)
	assert.InDelta(t, 40, body.Camera.FOV, 1e-6)
}

func TestHandleCameraMove(t *testing.T) {
	s := newCornellServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var state CameraState
	status := getJSON(t, ts.URL+"/api/camera/move?dz=1", &state)

	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 278, state.From[0], 1e-3)
	assert.InDelta(t, 278, state.From[1], 1e-3)
	assert.InDelta(t, -799.9, state.From[2], 1e-3)
	assert.InDelta(t, 0.1, state.To[2], 1e-3)
	assert.Equal(t, uint64(2), state.Epoch)
}

func TestHandleCameraMove_NoOpKeepsEpoch(t *testing.T) {
	s := newCornellServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var state CameraState
	status := getJSON(t, ts.URL+"/api/camera/move", &state)

	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, -800, state.From[2], 1e-3)
	assert.Equal(t, uint64(1), state.Epoch)
}

func TestHandleCameraMove_RejectsBadParams(t *testing.T) {
	ts := httptest.NewServer(newCornellServer(t).Handler())
	defer ts.Close()

	var body map[string]string
	status := getJSON(t, ts.URL+"/api/camera/move?dz=abc", &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "invalid dz")

	status = getJSON(t, ts.URL+"/api/camera/move?dx=1000", &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "dx must be between")
}

func TestHandleCameraLook(t *testing.T) {
	s := newCornellServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	// The view direction is +z at distance 800; a 90 degree yaw swings
	// the target to +x.
	var state CameraState
	status := getJSON(t, ts.URL+"/api/camera/look?yaw=90", &state)

	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 278+800, state.To[0], 0.01)
	assert.InDelta(t, 278, state.To[1], 0.01)
	assert.InDelta(t, -800, state.To[2], 0.01)
	assert.InDelta(t, -800, state.From[2], 1e-3)
	assert.Equal(t, uint64(2), state.Epoch)
}

func TestHandleCameraReset(t *testing.T) {
	s := newCornellServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	// Change resolution directly, then wander off
	cfg := s.camera.Config()
	cfg.Width, cfg.Height = 200, 150
	require.NoError(t, s.camera.SetConfig(cfg))

	var state CameraState
	getJSON(t, ts.URL+"/api/camera/move?dz=5&dx=2", &state)
	getJSON(t, ts.URL+"/api/camera/look?yaw=30&pitch=-10", &state)
	require.NotEqual(t, float32(-800), state.From[2])

	status := getJSON(t, ts.URL+"/api/camera/reset", &state)

	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 278, state.From[0], 1e-3)
	assert.InDelta(t, 278, state.From[1], 1e-3)
	assert.InDelta(t, -800, state.From[2], 1e-3)
	assert.InDelta(t, 0, state.To[2], 1e-3)
	assert.Equal(t, 200, state.Width, "reset keeps the current resolution")
	assert.Equal(t, 150, state.Height)
}

func TestHandleInspect_QuadCenter(t *testing.T) {
	s, _ := newQuadServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var resp InspectResponse
	status := getJSON(t, ts.URL+"/api/inspect?x=32&y=24", &resp)

	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Hit)
	assert.Equal(t, "diffuse", resp.Material)
	assert.InDelta(t, 3.0, resp.Distance, 0.01)
	assert.InDelta(t, 0, resp.Point[1], 1e-3)
	assert.InDelta(t, 1, resp.Normal[1], 1e-3)
	assert.True(t, resp.FrontFace)
	assert.InDelta(t, 0.5, resp.UV[0], 0.1)
	assert.InDelta(t, 0.5, resp.UV[1], 0.1)

	albedo, ok := resp.Properties["albedo"].([]interface{})
	require.True(t, ok)
	assert.InDelta(t, 0.8, albedo[0].(float64), 1e-6)

	geo, ok := resp.Properties["geometry"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 0, geo["instance"])
	assert.EqualValues(t, 2, geo["triangles"])
}

func TestHandleInspect_Miss(t *testing.T) {
	s, _ := newQuadServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var resp InspectResponse
	status := getJSON(t, ts.URL+"/api/inspect?x=0&y=0", &resp)

	require.Equal(t, http.StatusOK, status)
	assert.False(t, resp.Hit)
}

func TestHandleInspect_CornellBlock(t *testing.T) {
	ts := httptest.NewServer(newCornellServer(t).Handler())
	defer ts.Close()

	// The center pixel looks straight down +z and reaches the tall
	// block's near face before the back wall.
	var resp InspectResponse
	status := getJSON(t, ts.URL+"/api/inspect?x=200&y=200", &resp)

	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Hit)
	assert.Equal(t, "diffuse", resp.Material)
	assert.InDelta(t, 1089.7, resp.Distance, 1.0)
	assert.InDelta(t, -0.966, resp.Normal[2], 0.01)
	assert.True(t, resp.FrontFace)

	geo, ok := resp.Properties["geometry"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 7, geo["instance"])
	assert.EqualValues(t, 12, geo["triangles"])
}

func TestHandleInspect_RejectsBadCoordinates(t *testing.T) {
	ts := httptest.NewServer(newCornellServer(t).Handler())
	defer ts.Close()

	var body map[string]string
	status := getJSON(t, ts.URL+"/api/inspect?x=abc&y=0", &body)
	assert.Equal(t, http.StatusBadRequest, status)

	status = getJSON(t, ts.URL+"/api/inspect?x=400&y=0", &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "outside")
}
