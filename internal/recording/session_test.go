package recording

import (
	"errors"
	"testing"
	"time"

	"github.com/jwulff/clipcam/internal/device"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func start(t *testing.T, id string) State {
	t.Helper()
	s, eff := Reduce(State{}, Toggle{SessionID: id, Now: t0})
	if eff.Kind != EffectStartCapture {
		t.Fatalf("effect = %v, want start", eff.Kind)
	}
	return s
}

func TestToggleStartsSession(t *testing.T) {
	s, eff := Reduce(State{}, Toggle{SessionID: "s1", Now: t0})

	if s.Status != StatusRecording {
		t.Errorf("status = %v, want recording", s.Status)
	}
	if !s.Recording() {
		t.Error("recording flag should flip on the toggle itself")
	}
	if eff.Kind != EffectStartCapture || eff.SessionID != "s1" {
		t.Errorf("effect = %+v, want start for s1", eff)
	}
	if eff.Constraints.MaxDuration != 5*time.Second || eff.Constraints.Quality != device.Quality720p {
		t.Errorf("constraints = %+v, want 5s/720p", eff.Constraints)
	}
}

func TestToggleWithoutCameraReportsError(t *testing.T) {
	camErr := device.ErrCameraUnavailable
	s, eff := Reduce(State{}, Toggle{SessionID: "s1", Now: t0, Camera: camErr})

	if s.Status != StatusIdle {
		t.Errorf("status = %v, want idle", s.Status)
	}
	if eff.Kind != EffectReportError || !errors.Is(eff.Err, device.ErrCameraUnavailable) {
		t.Errorf("effect = %+v, want camera unavailable report", eff)
	}
}

func TestDoubleToggleNeverStartsTwoSessions(t *testing.T) {
	s := start(t, "s1")

	// Second toggle lands before the start settled.
	s, eff := Reduce(s, Toggle{SessionID: "s2", Now: t0})
	if eff.Kind != EffectStopCapture || eff.SessionID != "s1" {
		t.Fatalf("effect = %+v, want stop for s1", eff)
	}
	if s.SessionID != "s1" {
		t.Errorf("session = %q, want s1", s.SessionID)
	}

	// Third toggle inside the stop window is ignored.
	s, eff = Reduce(s, Toggle{SessionID: "s3", Now: t0})
	if eff.Kind != EffectNone {
		t.Errorf("effect = %+v, want none", eff)
	}
	if s.SessionID != "s1" || s.Status != StatusFinalizing {
		t.Errorf("state = %+v, want s1 finalizing", s)
	}
}

func TestCapThenStopFinalizesOnce(t *testing.T) {
	s := start(t, "s1")
	result := device.CaptureResult{URI: "file:///tmp/s1.mp4"}

	s, eff := Reduce(s, CaptureFinished{SessionID: "s1", Result: result})
	if eff.Kind != EffectSave {
		t.Fatalf("effect = %v, want save", eff.Kind)
	}
	if eff.Capture.URI != result.URI {
		t.Errorf("capture uri = %q, want %q", eff.Capture.URI, result.URI)
	}

	// Stop toggle in the same tick after cap expiry: no-op.
	s, eff = Reduce(s, Toggle{SessionID: "s2", Now: t0})
	if eff.Kind != EffectNone {
		t.Errorf("stop after cap: effect = %v, want none", eff.Kind)
	}
	if s.Status != StatusFinalizing {
		t.Errorf("status = %v, want finalizing", s.Status)
	}
}

func TestStopThenCapFinalizesOnce(t *testing.T) {
	s := start(t, "s1")

	s, eff := Reduce(s, Toggle{})
	if eff.Kind != EffectStopCapture {
		t.Fatalf("effect = %v, want stop", eff.Kind)
	}

	saves := 0
	for i := 0; i < 2; i++ {
		s, eff = Reduce(s, CaptureFinished{SessionID: "s1", Result: device.CaptureResult{URI: "u"}})
		if eff.Kind == EffectSave {
			saves++
		}
	}
	if saves != 1 {
		t.Errorf("saves = %d, want 1", saves)
	}
}

func TestCaptureFailureAbortsToIdle(t *testing.T) {
	s := start(t, "s1")

	s, eff := Reduce(s, CaptureFailed{SessionID: "s1", Err: errors.New("permission revoked")})
	if s.Status != StatusIdle || s.Recording() {
		t.Errorf("state = %+v, want idle", s)
	}
	if eff.Kind != EffectReportError {
		t.Fatalf("effect = %v, want report", eff.Kind)
	}
	if !errors.Is(eff.Err, device.ErrCaptureFailed) {
		t.Errorf("err = %v, want ErrCaptureFailed", eff.Err)
	}
}

func TestStaleEventsIgnored(t *testing.T) {
	s := start(t, "s1")

	next, eff := Reduce(s, CaptureFinished{SessionID: "other"})
	if eff.Kind != EffectNone || next != s {
		t.Error("finish for another session should be ignored")
	}
	next, eff = Reduce(s, CaptureFailed{SessionID: "other", Err: errors.New("x")})
	if eff.Kind != EffectNone || next != s {
		t.Error("failure for another session should be ignored")
	}
	next, eff = Reduce(State{}, SaveFinished{SessionID: "s1"})
	if eff.Kind != EffectNone || next.Status != StatusIdle {
		t.Error("save finished while idle should be ignored")
	}
}

func TestSaveFinishedReturnsToIdle(t *testing.T) {
	s := start(t, "s1")
	if next, _ := Reduce(s, SaveFinished{SessionID: "s1"}); next != s {
		t.Error("save finished before the capture settled should be ignored")
	}

	s, _ = Reduce(s, CaptureFinished{SessionID: "s1"})
	s, _ = Reduce(s, SaveFinished{SessionID: "s1"})
	if s.Status != StatusIdle || s.Recording() {
		t.Errorf("state = %+v, want idle", s)
	}

	// A fresh toggle can start again.
	s, eff := Reduce(s, Toggle{SessionID: "s2", Now: t0})
	if eff.Kind != EffectStartCapture || s.SessionID != "s2" {
		t.Errorf("restart effect = %+v", eff)
	}
}

func TestElapsedCapped(t *testing.T) {
	s := start(t, "s1")
	if got := s.Elapsed(t0.Add(2 * time.Second)); got != 2*time.Second {
		t.Errorf("elapsed = %v, want 2s", got)
	}
	if got := s.Elapsed(t0.Add(time.Minute)); got != 5*time.Second {
		t.Errorf("elapsed = %v, want cap 5s", got)
	}
	if got := (State{}).Elapsed(t0); got != 0 {
		t.Errorf("idle elapsed = %v, want 0", got)
	}
}
