package telemetry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pthm-cable/gyre/components"
)

// FrameVersion is incremented when the capture format changes.
const FrameVersion = 1

// AgentFrame is one agent's state at one outer step.
type AgentFrame struct {
	ID    uint32  `json:"id"`
	Kind  string  `json:"kind"`
	State string  `json:"state"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Age   int32   `json:"age"`
}

// Frame captures every live agent at one outer step of one pass.
type Frame struct {
	Phase  string       `json:"phase"`
	Step   int          `json:"step"`
	Agents []AgentFrame `json:"agents"`
}

// Recorder receives per-step captures. Implementations must not mutate the
// frames; capture is an observation tap and never alters physics.
type Recorder interface {
	RecordFrame(f Frame)
}

// FrameRecorder buffers captured frames in memory for later export.
// Capture trades memory for observability, so it is opt-in per month.
type FrameRecorder struct {
	Version int     `json:"version"`
	Month   string  `json:"month"`
	Frames  []Frame `json:"frames"`
}

// NewFrameRecorder creates a recorder for the named month.
func NewFrameRecorder(month string) *FrameRecorder {
	return &FrameRecorder{Version: FrameVersion, Month: month}
}

// RecordFrame appends a frame.
func (r *FrameRecorder) RecordFrame(f Frame) {
	r.Frames = append(r.Frames, f)
}

// WriteJSON writes all captured frames to a file.
func (r *FrameRecorder) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling frames: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing frames: %w", err)
	}
	return nil
}

// NewAgentFrame builds a capture record from agent components.
func NewAgentFrame(id uint32, pos components.Position, vel components.Velocity, drift components.Drift, life components.Life) AgentFrame {
	return AgentFrame{
		ID:    id,
		Kind:  drift.Kind.String(),
		State: life.State.String(),
		X:     pos.X,
		Y:     pos.Y,
		VX:    vel.X,
		VY:    vel.Y,
		Age:   life.Age,
	}
}
