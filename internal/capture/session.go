// Package capture implements face-guided auto-capture: a per-frame presence
// heuristic debounced over time into a countdown that takes one photo.
package capture

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreamingNotReady
	PhaseReadyNoFace
	PhaseReadyFaceDetected
	PhaseCountdown
	PhaseCaptured
	// PhaseAwaitingCapture is the native still-camera path waiting for a
	// manual capture; no sampling runs.
	PhaseAwaitingCapture
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStreamingNotReady:
		return "streaming_not_ready"
	case PhaseReadyNoFace:
		return "ready_no_face"
	case PhaseReadyFaceDetected:
		return "ready_face_detected"
	case PhaseCountdown:
		return "countdown"
	case PhaseCaptured:
		return "captured"
	case PhaseAwaitingCapture:
		return "awaiting_capture"
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ready reports the Streaming-Ready-* phases.
func (p Phase) ready() bool {
	return p == PhaseReadyNoFace || p == PhaseReadyFaceDetected || p == PhaseCountdown
}

// State is a snapshot of a session. CountdownRemaining > 0 implies FaceDetected.
type State struct {
	Phase                 Phase          `json:"phase"`
	Streaming             bool           `json:"streaming"`
	Ready                 bool           `json:"ready"`
	ConsecutiveDetections int            `json:"consecutive_detections"`
	FaceDetected          bool           `json:"face_detected"`
	CountdownRemaining    int            `json:"countdown_remaining"`
	CapturedImage         []byte         `json:"-"`
	LastSignal            PresenceSignal `json:"last_signal"`
	Err                   error          `json:"-"`
}

type Config struct {
	SamplingInterval   time.Duration
	CountdownInterval  time.Duration
	RequiredDetections int
	CountdownSeconds   int
}

func DefaultConfig() Config {
	return Config{
		SamplingInterval:   300 * time.Millisecond,
		CountdownInterval:  time.Second,
		RequiredDetections: 3,
		CountdownSeconds:   3,
	}
}

type Option func(*Session)

func WithScheduler(s Scheduler) Option {
	return func(sess *Session) {
		sess.sched = s
	}
}

// WithStillCamera switches the session to the native capture path.
func WithStillCamera(c StillCamera) Option {
	return func(sess *Session) {
		sess.still = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(sess *Session) {
		sess.logger = l
	}
}

// WithObserver registers a callback invoked with every new state. It runs
// with the session locked and must not call back into the Session.
func WithObserver(fn func(State)) Option {
	return func(sess *Session) {
		sess.observer = fn
	}
}

func WithEncoder(fn func(image.Image) ([]byte, error)) Option {
	return func(sess *Session) {
		sess.encode = fn
	}
}

// Session is one camera's auto-capture state machine. All transitions run
// under one mutex, so sampling and countdown ticks never overlap.
type Session struct {
	mu       sync.Mutex
	cfg      Config
	source   FrameSource
	still    StillCamera
	sched    Scheduler
	encode   func(image.Image) ([]byte, error)
	logger   *slog.Logger
	observer func(State)

	state     State
	sampling  Task
	countdown Task
	// gen invalidates ticks already in flight when tasks are torn down
	gen      uint64
	captured bool
	captures int
}

func NewSession(cfg Config, source FrameSource, opts ...Option) *Session {
	defaults := DefaultConfig()
	if cfg.SamplingInterval <= 0 {
		cfg.SamplingInterval = defaults.SamplingInterval
	}
	if cfg.CountdownInterval <= 0 {
		cfg.CountdownInterval = defaults.CountdownInterval
	}
	if cfg.RequiredDetections <= 0 {
		cfg.RequiredDetections = defaults.RequiredDetections
	}
	if cfg.CountdownSeconds <= 0 {
		cfg.CountdownSeconds = defaults.CountdownSeconds
	}

	s := &Session{
		cfg:    cfg,
		source: source,
		sched:  TickerScheduler{},
		encode: EncodeJPEG,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Captures returns how many photos the session has taken.
func (s *Session) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

// Start opens the camera. Acquisition failures leave the session Idle with
// a typed error.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseIdle && s.state.Phase != PhaseCaptured {
		return nil
	}
	return s.startLocked(ctx)
}

func (s *Session) startLocked(ctx context.Context) error {
	s.captured = false
	s.state = State{}

	if s.still != nil {
		s.state.Phase = PhaseAwaitingCapture
		s.notify()
		return nil
	}

	if s.source == nil {
		return s.failLocked(domain.ErrCameraNotFound)
	}

	if err := s.source.Start(ctx); err != nil {
		return s.failLocked(acquisitionError(err))
	}

	s.state.Phase = PhaseStreamingNotReady
	s.state.Streaming = true
	s.logger.Debug("capture stream started")
	s.notify()
	return nil
}

// OnStreamReady is called once the stream reports decoded dimensions.
func (s *Session) OnStreamReady(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseStreamingNotReady || width <= 0 || height <= 0 {
		return
	}

	s.state.Phase = PhaseReadyNoFace
	s.state.Ready = true

	gen := s.gen
	s.sampling = s.sched.Every(s.cfg.SamplingInterval, func() { s.sample(gen) })
	s.notify()
}

// Tick samples the latest frame once, as the sampling task does.
func (s *Session) Tick() {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.sample(gen)
}

func (s *Session) sample(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || !s.state.Phase.ready() {
		return
	}

	var sig PresenceSignal
	frame, err := s.source.Frame()
	if err != nil {
		s.logger.Debug("no frame to sample", "error", err)
	} else {
		sig = AnalyzePresence(frame)
	}
	s.applyLocked(sig)
}

func (s *Session) applyLocked(sig PresenceSignal) {
	s.state.LastSignal = sig

	if !sig.Present {
		s.state.ConsecutiveDetections = 0
		s.state.FaceDetected = false
		s.cancelCountdownLocked()
		s.state.Phase = PhaseReadyNoFace
		s.notify()
		return
	}

	s.state.ConsecutiveDetections++
	if s.state.ConsecutiveDetections >= s.cfg.RequiredDetections {
		if !s.state.FaceDetected {
			s.state.FaceDetected = true
			s.state.Phase = PhaseReadyFaceDetected
		}
		if s.countdown == nil {
			s.startCountdownLocked()
		}
	}
	s.notify()
}

func (s *Session) startCountdownLocked() {
	s.state.CountdownRemaining = s.cfg.CountdownSeconds
	s.state.Phase = PhaseCountdown

	gen := s.gen
	s.countdown = s.sched.Every(s.cfg.CountdownInterval, func() { s.countdownTick(gen) })
}

func (s *Session) cancelCountdownLocked() {
	if s.countdown != nil {
		s.countdown.Cancel()
		s.countdown = nil
	}
	s.state.CountdownRemaining = 0
}

func (s *Session) countdownTick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.countdown == nil || s.state.Phase != PhaseCountdown {
		return
	}

	if s.state.CountdownRemaining > 1 {
		s.state.CountdownRemaining--
		s.notify()
		return
	}

	if _, err := s.captureFrameLocked(); err != nil {
		// stay streaming; the next positive tick re-arms the countdown
		s.logger.Warn("auto capture failed", "error", err)
		s.cancelCountdownLocked()
		s.state.Phase = PhaseReadyFaceDetected
		s.notify()
	}
}

// CaptureNow takes a photo immediately, bypassing heuristic and countdown.
// It works in any ready phase and on the native path while awaiting capture.
// A session captures at most once; later calls return the same photo.
func (s *Session) CaptureNow(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.captured {
		return s.state.CapturedImage, nil
	}

	switch {
	case s.state.Phase == PhaseAwaitingCapture:
		return s.captureStillLocked(ctx)
	case s.state.Phase.ready():
		return s.captureFrameLocked()
	}
	return nil, domain.ErrCaptureFailed.WithMessage("Camera is not ready")
}

func (s *Session) captureFrameLocked() ([]byte, error) {
	frame, err := s.source.Frame()
	if err != nil {
		return nil, domain.ErrCaptureFailed.WithError(err)
	}
	if frame.Bounds().Empty() {
		return nil, domain.ErrCaptureFailed.WithError(ErrNoFrame)
	}

	data, err := s.encode(frame)
	if err != nil {
		return nil, domain.ErrCaptureFailed.WithError(err)
	}

	s.finishCaptureLocked(data)
	return data, nil
}

func (s *Session) captureStillLocked(ctx context.Context) ([]byte, error) {
	data, err := s.still.Capture(ctx)
	if err != nil {
		if appErr := acquisitionError(err); appErr.Code != domain.ErrStreamStartFailed.Code {
			return nil, s.failLocked(appErr)
		}
		return nil, domain.ErrCaptureFailed.WithError(err)
	}
	if len(data) == 0 {
		return nil, domain.ErrCaptureFailed.WithError(ErrNoFrame)
	}

	s.finishCaptureLocked(data)
	return data, nil
}

// finishCaptureLocked is the single transition into Captured.
func (s *Session) finishCaptureLocked(data []byte) {
	s.captured = true
	s.captures++
	s.teardownLocked()

	s.state.Phase = PhaseCaptured
	s.state.CapturedImage = data
	s.logger.Info("photo captured", "bytes", len(data))
	s.notify()
}

// Stop releases the camera and cancels all timers. The session returns to Idle.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase == PhaseIdle {
		return
	}
	s.teardownLocked()
	s.state.Phase = PhaseIdle
	s.notify()
}

// Retake discards the photo. The streaming path re-opens the camera; the
// native path waits for another manual capture.
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseCaptured {
		return nil
	}
	return s.startLocked(ctx)
}

// teardownLocked cancels both tasks and releases the stream in one step.
func (s *Session) teardownLocked() {
	s.gen++
	if s.sampling != nil {
		s.sampling.Cancel()
		s.sampling = nil
	}
	s.cancelCountdownLocked()
	if s.state.Streaming && s.source != nil {
		s.source.Stop()
	}

	s.state.Streaming = false
	s.state.Ready = false
	s.state.FaceDetected = false
	s.state.ConsecutiveDetections = 0
	s.state.Err = nil
}

func (s *Session) failLocked(err *domain.AppError) error {
	s.teardownLocked()
	s.state.Phase = PhaseIdle
	s.state.Err = err
	s.logger.Warn("camera acquisition failed", "code", err.Code, "error", err)
	s.notify()
	return err
}

func (s *Session) snapshot() State {
	st := s.state
	if st.CapturedImage != nil {
		st.CapturedImage = append([]byte(nil), st.CapturedImage...)
	}
	return st
}

func (s *Session) notify() {
	if s.observer != nil {
		s.observer(s.snapshot())
	}
}

// acquisitionError maps a source failure to its user-facing category.
func acquisitionError(err error) *domain.AppError {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case domain.ErrCameraPermissionDenied.Code, domain.ErrCameraNotFound.Code, domain.ErrStreamStartFailed.Code:
			return appErr
		}
	}
	return domain.ErrStreamStartFailed.WithError(err)
}
