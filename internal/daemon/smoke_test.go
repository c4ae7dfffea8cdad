package daemon

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

// TestLiveDaemonConnection connects to a running capture daemon and asks for
// each permission. Skipped if the daemon socket doesn't exist.
func TestLiveDaemonConnection(t *testing.T) {
	sockPath := SocketPath()
	if _, err := os.Stat(sockPath); os.IsNotExist(err) {
		t.Skip("daemon not running (no socket at", sockPath, ")")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, err := Dial(ctx, sockPath, zap.NewNop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer r.Close()
	fmt.Printf("Connected to daemon: platform=%s\n", r.Platform())

	cam, err := r.RequestCamera(ctx)
	if err != nil {
		t.Fatalf("camera: %v", err)
	}
	lib, err := r.RequestMediaLibrary(ctx)
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	mic, err := r.RequestMicrophone(ctx)
	if err != nil {
		t.Fatalf("microphone: %v", err)
	}
	fmt.Printf("Permissions: camera=%+v library=%+v microphone=%+v\n", cam, lib, mic)
}
