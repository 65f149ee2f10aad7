package server

import (
	"encoding/json"
	"net/http"
)

// CameraState reports the shared camera after a movement operation.
// Epoch grows on every accepted change; render streams reset
// accumulation when they observe a new epoch.
type CameraState struct {
	From   [3]float32 `json:"from"`
	To     [3]float32 `json:"to"`
	Up     [3]float32 `json:"up"`
	FOV    float32    `json:"fov"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Epoch  uint64     `json:"epoch"`
}

// handleCameraMove translates the camera along its local axes. dx
// strafes right, dy moves up, dz moves forward, in move-speed units.
func (s *Server) handleCameraMove(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	q := r.URL.Query()
	dx, err := parseFloatParam(q, "dx", 0, -100, 100)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	dy, err := parseFloatParam(q, "dy", 0, -100, 100)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	dz, err := parseFloatParam(q, "dz", 0, -100, 100)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A zero move must not reset accumulation
	if dx != 0 || dy != 0 || dz != 0 {
		if err := s.camera.Move(float32(dx), float32(dy), float32(dz)); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	s.writeCameraState(w)
}

// handleCameraLook rotates the view direction by yaw and pitch degrees
func (s *Server) handleCameraLook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	q := r.URL.Query()
	yaw, err := parseFloatParam(q, "yaw", 0, -180, 180)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	pitch, err := parseFloatParam(q, "pitch", 0, -180, 180)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if yaw != 0 || pitch != 0 {
		if err := s.camera.Rotate(float32(yaw), float32(pitch)); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	s.writeCameraState(w)
}

// handleCameraReset restores the scene's home placement, keeping the
// resolution the viewer is currently rendering at.
func (s *Server) handleCameraReset(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	cfg := s.homeConfig()
	cur := s.camera.Config()
	cfg.Width, cfg.Height = cur.Width, cur.Height

	if err := s.camera.SetConfig(cfg); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeCameraState(w)
}

func (s *Server) writeCameraState(w http.ResponseWriter) {
	cfg := s.camera.Config()
	frame := s.camera.Frame()

	state := CameraState{
		From:   [3]float32{cfg.From.X, cfg.From.Y, cfg.From.Z},
		To:     [3]float32{cfg.To.X, cfg.To.Y, cfg.To.Z},
		Up:     [3]float32{cfg.Up.X, cfg.Up.Y, cfg.Up.Z},
		FOV:    cfg.FOV,
		Width:  cfg.Width,
		Height: cfg.Height,
		Epoch:  frame.Epoch,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(state)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
