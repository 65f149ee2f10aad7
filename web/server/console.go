package server

import (
	"fmt"
	"time"

	"github.com/renderloop/pathtrace/pkg/core"
)

// ConsoleMessage is one render log line relayed to the browser console
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by mirroring render log lines onto a
// console channel, which the render stream forwards as SSE events.
type WebLogger struct {
	base        core.Logger
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a logger feeding consoleChan. Every line also
// goes to base, which may be nil.
func NewWebLogger(base core.Logger, consoleChan chan<- ConsoleMessage) core.Logger {
	return &WebLogger{base: base, consoleChan: consoleChan}
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	if wl.base != nil {
		wl.base.Printf("%s", message)
	}

	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			Message:   message,
			Timestamp: time.Now(),
			Level:     "info",
		}:
		default:
			// Channel full, drop rather than stall the render
		}
	}
}
