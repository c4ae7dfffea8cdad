package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jwulff/clipcam/internal/album"
	"github.com/jwulff/clipcam/internal/camera"
	"github.com/jwulff/clipcam/internal/device"
	"github.com/jwulff/clipcam/internal/permission"
	"github.com/jwulff/clipcam/internal/recording"
	"github.com/jwulff/clipcam/internal/ui"
	"go.uber.org/zap"

	tea "github.com/charmbracelet/bubbletea"
)

// Authorizer resolves the screen's permissions.
type Authorizer interface {
	Authorize(ctx context.Context) (permission.Set, error)
	ConfirmLibrary(ctx context.Context) error
}

// Saver persists a finished capture into a named album.
type Saver interface {
	Save(ctx context.Context, capture device.CaptureResult, name string) (album.Asset, album.Album, error)
}

// Deps are the collaborators the screen drives.
type Deps struct {
	Context  context.Context
	Gateway  Authorizer
	Capturer device.Capturer
	Albums   Saver
	Log      *zap.Logger

	// Saves tracks saves still writing to the library. Defaults to a new
	// tracker; share one with the caller to wait for them on exit.
	Saves *Saves
}

const recordTickInterval = 200 * time.Millisecond

// mountSeq numbers screen mounts so results can be matched to the mount that
// issued them.
var mountSeq atomic.Uint64

// Model is the root bubbletea model for the capture screen.
type Model struct {
	deps Deps

	// Liveness
	mount   uint64
	mounted bool

	// Permissions
	permissions permission.Set
	permErr     string
	authorizing bool

	// Camera
	camera    camera.Tracker
	settings  device.CameraSettings
	cameraErr string

	// Recording
	session recording.State

	// Last saved clip
	savedURI   string
	savedAlbum string

	// Errors
	errorMessage   string
	errorTransient bool

	// UI state
	width  int
	height int

	now   func() time.Time
	newID func() string
}

// New creates a mounted screen with unresolved permissions.
func New(deps Deps) Model {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Saves == nil {
		deps.Saves = &Saves{}
	}
	return Model{
		deps:        deps,
		mount:       mountSeq.Add(1),
		mounted:     true,
		permissions: permission.Unresolved(),
		settings:    device.DefaultCameraSettings(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Init asks for permissions.
func (m Model) Init() tea.Cmd {
	return authorizeCmd(m.deps, m.mount)
}

// Screen returns the current render state.
func (m Model) Screen() Screen {
	return Resolve(m.permissions, m.camera.Ready())
}

// Mounted reports whether the screen is still active.
func (m Model) Mounted() bool { return m.mounted }

// Unmount deactivates the screen. Results of commands still in flight are
// dropped when they arrive.
func (m Model) Unmount() Model {
	if !m.mounted {
		return m
	}
	m.mounted = false
	m.camera.Unmount()
	m.deps.Log.Info("screen unmounted",
		zap.Uint64("mount", m.mount),
		zap.Stringer("recording", m.session.Status),
	)
	return m
}

func authorizeCmd(deps Deps, mount uint64) tea.Cmd {
	return func() tea.Msg {
		set, err := deps.Gateway.Authorize(deps.Context)
		if err != nil {
			return PermissionsErrorMsg{Mount: mount, Err: err}
		}
		return PermissionsResolvedMsg{Mount: mount, Permissions: set}
	}
}

// prepareCmd mounts the camera hardware; success is the readiness signal.
func prepareCmd(deps Deps, mount, gen uint64, settings device.CameraSettings) tea.Cmd {
	return func() tea.Msg {
		if err := deps.Capturer.Prepare(deps.Context, settings); err != nil {
			return CameraErrorMsg{Mount: mount, Generation: gen, Err: err}
		}
		return CameraReadyMsg{Mount: mount, Generation: gen}
	}
}

// startCaptureCmd re-checks library access, then blocks until the capture
// hits its cap or is stopped.
func startCaptureCmd(deps Deps, mount uint64, id string, c device.Constraints) tea.Cmd {
	return func() tea.Msg {
		if err := deps.Gateway.ConfirmLibrary(deps.Context); err != nil {
			deps.Capturer.Abandon(id)
			return CaptureFailedMsg{Mount: mount, SessionID: id, Err: err}
		}
		res, err := deps.Capturer.StartCapture(deps.Context, id, c)
		if err != nil {
			return CaptureFailedMsg{Mount: mount, SessionID: id, Err: err}
		}
		return CaptureFinishedMsg{Mount: mount, SessionID: id, Result: res}
	}
}

// stopCaptureCmd asks the capture to end early. A capture that already ended
// at its cap is not an error.
func stopCaptureCmd(deps Deps, mount uint64, id string) tea.Cmd {
	return func() tea.Msg {
		err := deps.Capturer.StopCapture(deps.Context, id)
		if err == nil || errors.Is(err, device.ErrCaptureNotRunning) {
			return nil
		}
		return StopFailedMsg{Mount: mount, SessionID: id, Err: err}
	}
}

// saveCmd starts the save right away, tracked by deps.Saves, so it completes
// even if the program quits before the command runs.
func saveCmd(deps Deps, mount uint64, id string, res device.CaptureResult) tea.Cmd {
	done := deps.Saves.start(deps.Context, deps.Albums, res, album.DefaultName)
	return func() tea.Msg {
		r := <-done
		if r.err != nil {
			if ae, ok := album.IsAssignError(r.err); ok {
				return SaveFailedMsg{Mount: mount, SessionID: id, Asset: &ae.Asset, Err: r.err}
			}
			return SaveFailedMsg{Mount: mount, SessionID: id, Err: r.err}
		}
		return SavedMsg{Mount: mount, SessionID: id, Asset: r.asset, Album: r.album}
	}
}

func recordTickCmd(mount uint64, id string) tea.Cmd {
	return tea.Tick(recordTickInterval, func(time.Time) tea.Msg {
		return RecordTickMsg{Mount: mount, SessionID: id}
	})
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd(mount uint64) tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{Mount: mount}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if am, ok := msg.(asyncMsg); ok && (!m.mounted || am.origin() != m.mount) {
		return m, nil
	}

	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case PermissionsResolvedMsg:
		m.authorizing = false
		m.permErr = ""
		m.permissions = msg.Permissions
		return m, m.syncCamera()

	case PermissionsErrorMsg:
		m.authorizing = false
		m.permErr = msg.Err.Error()
		m.deps.Log.Warn("authorize failed", zap.Error(msg.Err))
		return m, nil

	case CameraReadyMsg:
		if m.camera.MarkReady(msg.Generation) {
			m.cameraErr = ""
			m.deps.Log.Info("camera ready", zap.Uint64("generation", msg.Generation))
		}
		return m, nil

	case CameraErrorMsg:
		if msg.Generation == m.camera.Generation() {
			m.cameraErr = msg.Err.Error()
			m.deps.Log.Warn("camera prepare failed", zap.Error(msg.Err))
		}
		return m, nil

	case CaptureFinishedMsg:
		return m.apply(recording.CaptureFinished{SessionID: msg.SessionID, Result: msg.Result})

	case CaptureFailedMsg:
		return m.apply(recording.CaptureFailed{SessionID: msg.SessionID, Err: msg.Err})

	case StopFailedMsg:
		if msg.SessionID != m.session.SessionID {
			return m, nil
		}
		m.deps.Log.Warn("stop capture failed", zap.String("session_id", msg.SessionID), zap.Error(msg.Err))
		return m.setTransientError("Stop failed, clip ends at the time limit: " + msg.Err.Error())

	case SavedMsg:
		if msg.SessionID != m.session.SessionID {
			return m, nil
		}
		m.savedURI = msg.Asset.ResolvedURI
		m.savedAlbum = msg.Album.Name
		return m.apply(recording.SaveFinished{SessionID: msg.SessionID})

	case SaveFailedMsg:
		if msg.SessionID != m.session.SessionID {
			return m, nil
		}
		m, _ = m.apply(recording.SaveFinished{SessionID: msg.SessionID})
		if msg.Asset != nil {
			m.savedURI = msg.Asset.ResolvedURI
			m.savedAlbum = ""
			return m.setTransientError("Clip saved but not added to album: " + msg.Err.Error())
		}
		m.deps.Log.Error("save failed", zap.String("session_id", msg.SessionID), zap.Error(msg.Err))
		return m.setTransientError("Save failed: " + msg.Err.Error())

	case RecordTickMsg:
		if m.session.Status == recording.StatusRecording && msg.SessionID == m.session.SessionID {
			return m, recordTickCmd(m.mount, msg.SessionID)
		}
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// apply feeds ev to the recording reducer and runs the resulting effect.
func (m Model) apply(ev recording.Event) (Model, tea.Cmd) {
	prev := m.session
	var eff recording.Effect
	m.session, eff = recording.Reduce(m.session, ev)
	if m.session.Status != prev.Status {
		id := m.session.SessionID
		if id == "" {
			id = prev.SessionID
		}
		m.deps.Log.Info("recording transition",
			zap.String("session_id", id),
			zap.Stringer("from", prev.Status),
			zap.Stringer("to", m.session.Status),
		)
	}

	switch eff.Kind {
	case recording.EffectStartCapture:
		m.savedURI = ""
		m.savedAlbum = ""
		return m, tea.Batch(
			startCaptureCmd(m.deps, m.mount, eff.SessionID, eff.Constraints),
			recordTickCmd(m.mount, eff.SessionID),
		)
	case recording.EffectStopCapture:
		return m, stopCaptureCmd(m.deps, m.mount, eff.SessionID)
	case recording.EffectSave:
		return m, saveCmd(m.deps, m.mount, eff.SessionID, eff.Capture)
	case recording.EffectReportError:
		if errors.Is(eff.Err, device.ErrCaptureCancelled) {
			m.deps.Log.Info("recording cancelled", zap.String("session_id", eff.SessionID))
			return m, nil
		}
		m.deps.Log.Error("recording failed", zap.String("session_id", eff.SessionID), zap.Error(eff.Err))
		return m.setTransientError(userMessage(eff.Err))
	}
	return m, nil
}

func (m Model) setTransientError(text string) (Model, tea.Cmd) {
	m.errorMessage = text
	m.errorTransient = true
	return m, clearTransientErrorCmd(m.mount)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, device.ErrPermissionDenied):
		return "Recording failed: media library access was revoked"
	case errors.Is(err, device.ErrCameraUnavailable):
		return "Camera unavailable: " + err.Error()
	case errors.Is(err, device.ErrCaptureFailed):
		return "Recording failed: " + err.Error()
	}
	return err.Error()
}

// syncCamera mounts the camera once capture is allowed and releases it when
// access is lost.
func (m *Model) syncCamera() tea.Cmd {
	allowed := m.permissions.CaptureAllowed()
	switch {
	case allowed && !m.camera.Mounted():
		return m.remount()
	case !allowed && m.camera.Mounted():
		m.camera.Unmount()
	}
	return nil
}

// remount starts a new camera mount with the current settings. Readiness is
// false until its prepare succeeds.
func (m *Model) remount() tea.Cmd {
	gen := m.camera.Mount(m.settings)
	m.cameraErr = ""
	return prepareCmd(m.deps, m.mount, gen, m.settings)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m.Unmount(), tea.Quit

	case KeySpace:
		return m.toggle()

	case KeyRetry:
		return m.retry()

	case KeyFlipCamera:
		return m.changeSettings(func(s *device.CameraSettings) { s.Type = s.Type.Next() })

	case KeyCycleFlash:
		return m.changeSettings(func(s *device.CameraSettings) { s.Flash = s.Flash.Next() })
	}

	return m, nil
}

// toggle is the record/stop control. It exists only on the capture view.
func (m Model) toggle() (Model, tea.Cmd) {
	if m.Screen().Kind != ViewCapture {
		return m, nil
	}
	var ev recording.Toggle
	if m.session.Status == recording.StatusIdle {
		_, camErr := m.camera.Handle()
		ev = recording.Toggle{SessionID: m.newID(), Now: m.now(), Camera: camErr}
	}
	return m.apply(ev)
}

// retry re-runs authorize after a failure or a re-askable denial, or
// re-mounts a camera that failed to prepare.
func (m Model) retry() (Model, tea.Cmd) {
	if m.authorizing {
		return m, nil
	}
	s := m.Screen()
	switch {
	case s.Kind == ViewNone && m.permErr != "":
	case s.Kind == ViewPermissionRequest && s.Reask:
	case s.Kind == ViewPreview && m.cameraErr != "":
		return m, m.remount()
	default:
		return m, nil
	}
	m.authorizing = true
	return m, authorizeCmd(m.deps, m.mount)
}

func (m Model) changeSettings(change func(*device.CameraSettings)) (Model, tea.Cmd) {
	if m.session.Recording() {
		return m, nil
	}
	change(&m.settings)
	if !m.camera.Mounted() {
		return m, nil
	}
	m.deps.Log.Info("camera settings changed",
		zap.String("type", string(m.settings.Type)),
		zap.String("flash", string(m.settings.Flash)),
	)
	return m, m.remount()
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	screen := m.Screen()
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	switch screen.Kind {
	case ViewNone:
		sections = append(sections, m.renderUnresolved())
	case ViewPermissionRequest:
		sections = append(sections, m.renderPermissionRequest(screen))
	case ViewPreview:
		sections = append(sections, m.renderPreview())
	case ViewCapture:
		sections = append(sections, m.renderPreview())
		sections = append(sections, m.renderControls())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	sections = append(sections, m.renderFooter(screen))

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("CLIPCAM")
	if m.deps.Capturer == nil {
		return title
	}
	return title + ui.DimStyle.Render(" ("+string(m.deps.Capturer.Platform())+")")
}

func (m Model) renderUnresolved() string {
	if m.permErr == "" {
		return ""
	}
	return strings.Join([]string{
		ui.ErrorStyle.Render("  Permission system unavailable."),
		ui.DimStyle.Render("  " + m.permErr),
		ui.DimStyle.Render("  Press r to retry"),
	}, "\n")
}

func (m Model) renderPermissionRequest(s Screen) string {
	lines := []string{
		ui.PanelTitleStyle.Render("  PERMISSION REQUIRED"),
		"  clipcam needs access to record and save clips:",
	}
	for _, scope := range s.Denied {
		lines = append(lines, ui.ErrorTextStyle.Render("    ✗ "+scopeLabel(scope)))
	}
	lines = append(lines, "")
	if s.Reask {
		lines = append(lines, "  "+ui.FooterKeyStyle.Render("r")+ui.FooterDescStyle.Render(" Grant permission"))
	} else {
		lines = append(lines, ui.DimStyle.Render("  Access was denied. Enable it in system settings, then restart clipcam."))
	}
	return strings.Join(lines, "\n")
}

func scopeLabel(s device.Scope) string {
	switch s {
	case device.ScopeCamera:
		return "camera"
	case device.ScopeMicrophone:
		return "microphone"
	case device.ScopeMediaLibrary:
		return "media library"
	}
	return s.String()
}

func (m Model) renderPreview() string {
	w := max(20, m.width-2)
	h := max(3, m.height-10)

	var content string
	switch {
	case m.cameraErr != "":
		content = ui.ErrorTextStyle.Render("Camera unavailable: "+m.cameraErr) + "\n" +
			ui.DimStyle.Render("Press r to retry")
	case !m.camera.Ready():
		content = ui.DimStyle.Render("Starting camera...")
	default:
		content = fmt.Sprintf("%s camera · flash %s", m.settings.Type, m.settings.Flash)
	}

	style := ui.PreviewStyle
	if m.session.Recording() {
		style = ui.PreviewLiveStyle
	}
	return style.Width(w).Height(h).Render(content)
}

func (m Model) renderControls() string {
	var status, button string
	switch m.session.Status {
	case recording.StatusRecording:
		elapsed := m.session.Elapsed(m.now())
		status = ui.RecordingDotStyle.Render("● REC") + "  " +
			formatClock(elapsed) + ui.DimStyle.Render(" / "+formatClock(m.session.Constraints.MaxDuration))
		button = ui.StopButtonStyle.Render("■ Stop")
	case recording.StatusFinalizing:
		status = ui.FinalizingDotStyle.Render("◌ SAVING")
	default:
		status = ui.ReadyDotStyle.Render("○ READY")
		button = ui.RecordButtonStyle.Render("● Record")
	}

	line := status
	if button != "" {
		line += "   " + button
	}
	if m.savedURI != "" {
		saved := ui.SavedStyle.Render("Saved clip → ") + m.savedURI
		if m.savedAlbum != "" {
			saved += ui.DimStyle.Render(" (" + m.savedAlbum + ")")
		}
		line += "\n" + saved
	}
	return line
}

func formatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter(s Screen) string {
	var parts []string

	switch s.Kind {
	case ViewCapture:
		switch m.session.Status {
		case recording.StatusIdle:
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Record"))
			parts = append(parts, ui.FooterKeyStyle.Render("c")+ui.FooterDescStyle.Render(" Flip"))
			parts = append(parts, ui.FooterKeyStyle.Render("f")+ui.FooterDescStyle.Render(" Flash"))
		case recording.StatusRecording:
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Stop"))
		}
	case ViewPermissionRequest:
		if s.Reask {
			parts = append(parts, ui.FooterKeyStyle.Render("r")+ui.FooterDescStyle.Render(" Grant permission"))
		}
	case ViewPreview:
		if m.cameraErr != "" {
			parts = append(parts, ui.FooterKeyStyle.Render("r")+ui.FooterDescStyle.Render(" Retry"))
		}
	case ViewNone:
		if m.permErr != "" {
			parts = append(parts, ui.FooterKeyStyle.Render("r")+ui.FooterDescStyle.Render(" Retry"))
		}
	}

	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}
