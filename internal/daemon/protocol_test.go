package daemon

import (
	"encoding/json"
	"testing"
)

func TestCommandStartWireFormat(t *testing.T) {
	cmd := Command{
		Cmd:            CmdStart,
		SessionID:      "sess-1",
		MaxDurationSec: IntPtr(5),
		Quality:        "720p",
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"cmd":"start","sessionId":"sess-1","maxDurationSec":5,"quality":"720p"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestCommandOmitsEmptyFields(t *testing.T) {
	cmd := Command{Cmd: CmdStop, SessionID: "sess-1"}
	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}

	for _, key := range []string{"scope", "cameraType", "flash", "maxDurationSec", "quality"} {
		if _, ok := raw[key]; ok {
			t.Errorf("stop command should omit %s", key)
		}
	}
}

func TestResponsePermission(t *testing.T) {
	j := `{"ok":true,"granted":false,"canAskAgain":true}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Granted == nil || *resp.Granted {
		t.Errorf("granted = %v, want false", resp.Granted)
	}
	if resp.CanAskAgain == nil || !*resp.CanAskAgain {
		t.Errorf("canAskAgain = %v, want true", resp.CanAskAgain)
	}
}

func TestResponseNotRunning(t *testing.T) {
	j := `{"ok":false,"error":"no capture for session","code":"not_running"}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.OK {
		t.Error("ok = true, want false")
	}
	if resp.Code != CodeNotRunning {
		t.Errorf("code = %q, want %q", resp.Code, CodeNotRunning)
	}
}
