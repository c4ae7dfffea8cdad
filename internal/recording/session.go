// Package recording holds the record → stop → save state machine as a pure
// reducer. Reduce never performs I/O; it returns the Effect the caller must
// run, and the caller feeds the outcome back in as another Event.
package recording

import (
	"fmt"
	"time"

	"github.com/jwulff/clipcam/internal/device"
)

// Status is the lifecycle stage of the controller.
type Status int

const (
	StatusIdle Status = iota
	StatusRecording
	StatusFinalizing
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRecording:
		return "recording"
	case StatusFinalizing:
		return "finalizing"
	}
	return "unknown"
}

// State is the controller's single session. The zero value is Idle.
type State struct {
	Status      Status
	SessionID   string
	StartedAt   time.Time
	Constraints device.Constraints

	// StopRequested is set once the user has asked to stop.
	StopRequested bool
	// CaptureSettled is set once the capture produced a result. It is the
	// single-writer guard that keeps a session from finalizing twice.
	CaptureSettled bool
}

// Recording is the UI flag: true from the record toggle until the session is
// saved or aborted.
func (s State) Recording() bool { return s.Status != StatusIdle }

// Elapsed returns how long the session has been recording at now.
func (s State) Elapsed(now time.Time) time.Duration {
	if s.Status == StatusIdle || s.StartedAt.IsZero() {
		return 0
	}
	d := now.Sub(s.StartedAt)
	if d > s.Constraints.MaxDuration {
		return s.Constraints.MaxDuration
	}
	return d
}

// Event is an input to Reduce.
type Event interface{ event() }

// Toggle is the user's record/stop action. SessionID and Now are used only
// when the toggle starts a session. Camera carries the result of acquiring
// the camera handle; a non-nil value blocks starting.
type Toggle struct {
	SessionID string
	Now       time.Time
	Camera    error
}

// CaptureFinished reports the capture settled with media.
type CaptureFinished struct {
	SessionID string
	Result    device.CaptureResult
}

// CaptureFailed reports the capture rejected.
type CaptureFailed struct {
	SessionID string
	Err       error
}

// SaveFinished reports the save pipeline completed, successfully or not.
type SaveFinished struct {
	SessionID string
}

func (Toggle) event()          {}
func (CaptureFinished) event() {}
func (CaptureFailed) event()   {}
func (SaveFinished) event()    {}

// EffectKind names the side effect Reduce asks for.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectStartCapture
	EffectStopCapture
	EffectSave
	EffectReportError
)

// Effect is the side effect to run after a transition.
type Effect struct {
	Kind        EffectKind
	SessionID   string
	Constraints device.Constraints
	Capture     device.CaptureResult
	Err         error
}

// Reduce applies ev to s.
//
//	Idle       --toggle-->          Recording   (start capture)
//	Recording  --toggle-->          Finalizing  (stop capture, await result)
//	Recording  --capture finished-> Finalizing  (save)
//	Finalizing --capture finished-> Finalizing  (save, once)
//	Recording/Finalizing --capture failed--> Idle (report)
//	Finalizing --save finished-->   Idle
//
// Events for another session, and toggles while Finalizing, are ignored.
func Reduce(s State, ev Event) (State, Effect) {
	switch ev := ev.(type) {
	case Toggle:
		return onToggle(s, ev)

	case CaptureFinished:
		if !s.owns(ev.SessionID) || s.CaptureSettled {
			return s, Effect{}
		}
		s.Status = StatusFinalizing
		s.CaptureSettled = true
		return s, Effect{Kind: EffectSave, SessionID: s.SessionID, Capture: ev.Result}

	case CaptureFailed:
		if !s.owns(ev.SessionID) || s.CaptureSettled {
			return s, Effect{}
		}
		id := s.SessionID
		return State{}, Effect{
			Kind:      EffectReportError,
			SessionID: id,
			Err:       fmt.Errorf("session %s: %w: %w", id, device.ErrCaptureFailed, ev.Err),
		}

	case SaveFinished:
		if !s.owns(ev.SessionID) || !s.CaptureSettled {
			return s, Effect{}
		}
		return State{}, Effect{}
	}
	return s, Effect{}
}

func onToggle(s State, ev Toggle) (State, Effect) {
	switch s.Status {
	case StatusIdle:
		if ev.Camera != nil {
			return s, Effect{Kind: EffectReportError, Err: ev.Camera}
		}
		c := device.DefaultConstraints()
		return State{
			Status:      StatusRecording,
			SessionID:   ev.SessionID,
			StartedAt:   ev.Now,
			Constraints: c,
		}, Effect{Kind: EffectStartCapture, SessionID: ev.SessionID, Constraints: c}

	case StatusRecording:
		s.Status = StatusFinalizing
		s.StopRequested = true
		return s, Effect{Kind: EffectStopCapture, SessionID: s.SessionID}
	}
	// Finalizing: the stop is already in flight or the capture already settled.
	return s, Effect{}
}

func (s State) owns(id string) bool {
	return s.Status != StatusIdle && id != "" && id == s.SessionID
}
