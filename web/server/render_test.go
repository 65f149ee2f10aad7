package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

// readSSE consumes the stream until stop returns true or it ends
func readSSE(t *testing.T, body io.Reader, stop func(sseEvent) bool) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if current.name == "" {
				continue
			}
			events = append(events, current)
			if stop != nil && stop(current) {
				return events
			}
			current = sseEvent{}
		}
	}
	return events
}

func decodeFramePNG(t *testing.T, data string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func collectProgress(t *testing.T, events []sseEvent) []FrameUpdate {
	t.Helper()
	var progress []FrameUpdate
	for _, ev := range events {
		if ev.name != "progress" {
			continue
		}
		var update FrameUpdate
		require.NoError(t, json.Unmarshal([]byte(ev.data), &update))
		progress = append(progress, update)
	}
	return progress
}

func TestHandleRender_StreamsFrames(t *testing.T) {
	s, _ := newQuadServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/render?maxSamples=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readSSE(t, resp.Body, nil)
	require.NotEmpty(t, events)

	assert.Equal(t, "scene", events[0].name)
	var sceneUpd SceneUpdate
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &sceneUpd))
	assert.Equal(t, uint64(0), sceneUpd.Generation)
	assert.Equal(t, 2, sceneUpd.Primitives)
	assert.Equal(t, 0, sceneUpd.Lights)

	progress := collectProgress(t, events)
	require.Len(t, progress, 2)

	assert.Equal(t, 0, progress[0].FrameIndex)
	assert.Equal(t, 1, progress[0].Samples)
	assert.False(t, progress[0].IsComplete)

	assert.Equal(t, 1, progress[1].FrameIndex)
	assert.Equal(t, 2, progress[1].Samples)
	assert.True(t, progress[1].IsComplete)
	assert.Equal(t, 64, progress[1].Width)
	assert.Equal(t, 48, progress[1].Height)

	img := decodeFramePNG(t, progress[1].ImageData)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	assert.Equal(t, "complete", events[len(events)-1].name)
}

func TestHandleRender_PreviewDownscale(t *testing.T) {
	s, _ := newQuadServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/render?maxSamples=1&previewWidth=32")
	require.NoError(t, err)
	defer resp.Body.Close()

	progress := collectProgress(t, readSSE(t, resp.Body, nil))
	require.Len(t, progress, 1)

	// The update reports the full resolution, the payload is downscaled
	assert.Equal(t, 64, progress[0].Width)
	assert.Equal(t, 48, progress[0].Height)

	img := decodeFramePNG(t, progress[0].ImageData)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestHandleRender_AppliesResolution(t *testing.T) {
	s, _ := newQuadServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/render?width=96&height=72&maxSamples=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	progress := collectProgress(t, readSSE(t, resp.Body, nil))
	require.Len(t, progress, 1)
	assert.Equal(t, 96, progress[0].Width)
	assert.Equal(t, 72, progress[0].Height)

	cfg := s.camera.Config()
	assert.Equal(t, 96, cfg.Width)
	assert.Equal(t, 72, cfg.Height)
}

func TestHandleRender_RejectsBadParams(t *testing.T) {
	s, _ := newQuadServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/render?maxSamples=0")
	require.NoError(t, err)
	defer resp.Body.Close()

	events := readSSE(t, resp.Body, nil)
	require.NotEmpty(t, events)
	assert.Equal(t, "error", events[0].name)
	assert.Contains(t, events[0].data, "maxSamples must be between")
}

func TestHandleRender_RestartsOnSceneReload(t *testing.T) {
	s, path := newQuadServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/render?maxSamples=4096", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	sawProgress := false
	var reloaded *SceneUpdate
	readSSE(t, resp.Body, func(ev sseEvent) bool {
		switch ev.name {
		case "progress":
			if !sawProgress {
				sawProgress = true
				require.NoError(t, os.WriteFile(path, []byte(twoQuadSceneJSON), 0644))
				require.NoError(t, s.reloadScene())
			}
		case "scene":
			var update SceneUpdate
			require.NoError(t, json.Unmarshal([]byte(ev.data), &update))
			if update.Generation > 0 {
				reloaded = &update
				return true
			}
		}
		return false
	})
	cancel()

	require.NotNil(t, reloaded, "stream should announce the reloaded scene")
	assert.Equal(t, uint64(1), reloaded.Generation)
	assert.Equal(t, 4, reloaded.Primitives)
}
