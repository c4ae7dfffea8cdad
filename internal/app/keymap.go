package app

// Key binding constants used in handleKey.
const (
	KeyQuit       = "q"
	KeyQuitUpper  = "Q"
	KeyCtrlC      = "ctrl+c"
	KeySpace      = " "
	KeyRetry      = "r"
	KeyFlipCamera = "c"
	KeyCycleFlash = "f"
)
