// Package daemon provides the client and protocol types for driving a remote
// capture daemon over a Unix socket using NDJSON. Remote adapts the client to
// the device.Permissions and device.Capturer interfaces.
package daemon

// Command names understood by the capture daemon.
const (
	CmdHello      = "hello"
	CmdPermission = "permission"
	CmdPrepare    = "prepare"
	CmdStart      = "start"
	CmdStop       = "stop"
)

// Error codes the daemon puts in Response.Code.
const (
	CodeNotRunning = "not_running"
)

// Command is sent from a client to the daemon.
type Command struct {
	Cmd            string `json:"cmd"`
	SessionID      string `json:"sessionId,omitempty"`
	Scope          string `json:"scope,omitempty"`
	CameraType     string `json:"cameraType,omitempty"`
	Flash          string `json:"flash,omitempty"`
	MaxDurationSec *int   `json:"maxDurationSec,omitempty"`
	Quality        string `json:"quality,omitempty"`
}

// Response is returned by the daemon after processing a command. A start
// command is answered once the capture settles.
type Response struct {
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Granted     *bool  `json:"granted,omitempty"`
	CanAskAgain *bool  `json:"canAskAgain,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// BoolPtr returns a pointer to a bool value. Convenience for building responses.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to an int value.
func IntPtr(n int) *int { return &n }
