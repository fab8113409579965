// Package capture manages the lifecycle of the barcode scanner's camera stream.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State of a capture session
type State int

const (
	Idle State = iota
	Requesting
	Streaming
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Streaming:
		return "streaming"
	case Error:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Facing selects which camera to open
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

var (
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrDeviceUnavailable = errors.New("camera unavailable")
)

// cameraFailureReason is shown to the user when the camera cannot be opened
const cameraFailureReason = "Não foi possível acessar a câmera. Verifique se as permissões foram concedidas."

// PermissionError is a camera access failure. It is kept as session state, never returned from Start.
type PermissionError struct {
	Reason string
	Err    error
}

func (e *PermissionError) Error() string {
	return e.Reason + ": " + e.Err.Error()
}

func (e *PermissionError) Unwrap() error { return e.Err }

// Stream is an open camera stream
type Stream interface {
	Stop()
}

// Camera grants streams. Implementations should honor ctx cancellation but a
// late grant is tolerated: the manager stops and discards it.
type Camera interface {
	RequestStream(ctx context.Context, facing Facing) (Stream, error)
}

// Detector watches a stream and calls found when it recognizes a barcode. It
// must return once ctx is done.
type Detector interface {
	Watch(ctx context.Context, stream Stream, found func(identifier string))
}

// Option configures a Manager
type Option func(*Manager)

// WithDetector sets the scan source started on every successful grant
func WithDetector(d Detector) Option {
	return func(m *Manager) { m.detector = d }
}

// WithFacing selects the camera requested by Start
func WithFacing(f Facing) Option {
	return func(m *Manager) { m.facing = f }
}

// WithScanHandler sets the callback receiving scan results
func WithScanHandler(fn func(identifier string)) Option {
	return func(m *Manager) { m.onScan = fn }
}

// Manager owns at most one capture session at a time
type Manager struct {
	camera   Camera
	detector Detector
	facing   Facing
	onScan   func(string)

	mu         sync.Mutex
	state      State
	generation uint64
	stream     Stream
	cancel     context.CancelFunc
	lastErr    error

	wg sync.WaitGroup
}

func NewManager(camera Camera, opts ...Option) *Manager {
	m := &Manager{
		camera: camera,
		facing: FacingEnvironment,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetScanHandler replaces the scan callback
func (m *Manager) SetScanHandler(fn func(identifier string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onScan = fn
}

// Start requests the camera. The grant is resolved in the background; a
// Streaming session is stopped first, and a pending request is left alone.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case Requesting:
		return
	case Streaming:
		slog.Debug("Restarting capture session", "generation", m.generation)
		m.releaseLocked()
	}

	m.generation++
	gen := m.generation
	m.state = Requesting
	m.lastErr = nil

	// the session outlives the caller's request
	reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		stream, err := m.camera.RequestStream(reqCtx, m.facing)
		m.resolve(reqCtx, gen, stream, err)
	}()
}

func (m *Manager) resolve(ctx context.Context, gen uint64, stream Stream, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation || m.state != Requesting {
		if stream != nil {
			stream.Stop()
		}
		slog.Debug("Discarding late camera grant", "generation", gen, "current", m.generation)
		return
	}

	if err != nil {
		m.releaseLocked()
		m.state = Error
		m.lastErr = &PermissionError{Reason: cameraFailureReason, Err: err}
		slog.Warn("Camera access failed", "err", err)
		return
	}

	m.state = Streaming
	m.stream = stream
	slog.Info("Capture session streaming", "generation", gen, "facing", m.facing)

	if m.detector != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.detector.Watch(ctx, stream, func(identifier string) {
				m.deliver(gen, identifier)
			})
		}()
	}
}

// Deliver hands a scan result to the current session. It is accepted only
// while Streaming and reports whether it was forwarded.
func (m *Manager) Deliver(identifier string) bool {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()
	return m.deliver(gen, identifier)
}

func (m *Manager) deliver(gen uint64, identifier string) bool {
	m.mu.Lock()
	if gen != m.generation || m.state != Streaming {
		m.mu.Unlock()
		return false
	}
	m.releaseLocked()
	m.generation++
	m.state = Idle
	handler := m.onScan
	m.mu.Unlock()

	slog.Info("Barcode scanned", "identifier", identifier)
	if handler != nil {
		handler(identifier)
	}
	return true
}

// Stop releases the camera. It is a no-op when nothing is active.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Requesting && m.state != Streaming {
		return
	}
	m.releaseLocked()
	m.generation++
	m.state = Idle
	slog.Debug("Capture session stopped", "generation", m.generation)
}

// Teardown stops the session and waits for background work to finish
func (m *Manager) Teardown() {
	m.Stop()
	m.wg.Wait()
}

func (m *Manager) releaseLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.stream != nil {
		m.stream.Stop()
		m.stream = nil
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Active reports whether a stream is open
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Streaming && m.stream != nil
}

// Err returns the failure that put the session in Error, if any
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Error {
		return nil
	}
	return m.lastErr
}

// LastError returns the user facing reason of the current failure
func (m *Manager) LastError() string {
	var pe *PermissionError
	if errors.As(m.Err(), &pe) {
		return pe.Reason
	}
	return ""
}

// CanStart is false only while a failure is being shown
func (m *Manager) CanStart() bool {
	return m.LastError() == ""
}
