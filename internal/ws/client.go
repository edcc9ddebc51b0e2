package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
	"github.com/saturnino-fabrica-de-software/veriface/internal/capture"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

const sendBuffer = 64

// Conn is the part of *websocket.Conn a client uses
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client bridges one websocket to one capture session. Binary messages are
// video frames; text messages are commands.
type Client struct {
	hub         *Hub
	conn        Conn
	device      string
	source      *capture.BufferedSource
	session     *capture.Session
	logger      *slog.Logger
	auditLogger audit.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Options configures capture clients created by Handler.
type Options struct {
	Capture     capture.Config
	Logger      *slog.Logger
	AuditLogger audit.Logger
	// SessionOptions are appended to the defaults (tests inject a scheduler)
	SessionOptions []capture.Option
}

func NewClient(hub *Hub, conn Conn, device string, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AuditLogger == nil {
		opts.AuditLogger = &audit.NoOpLogger{}
	}

	c := &Client{
		hub:         hub,
		conn:        conn,
		device:      device,
		source:      capture.NewBufferedSource(),
		logger:      opts.Logger.With("device", device),
		auditLogger: opts.AuditLogger,
		send:        make(chan []byte, sendBuffer),
	}

	sessionOpts := append([]capture.Option{
		capture.WithLogger(c.logger),
		capture.WithObserver(c.onState),
	}, opts.SessionOptions...)
	c.session = capture.NewSession(opts.Capture, c.source, sessionOpts...)

	return c
}

// onState runs under the session lock; it only queues.
func (c *Client) onState(st capture.State) {
	payload := StatePayload{State: st}
	eventType := EventState

	if st.Phase == capture.PhaseCaptured {
		eventType = EventCaptured
		payload.Image = st.CapturedImage
		c.logCapture(len(st.CapturedImage))
	}

	var appErr *domain.AppError
	if errors.As(st.Err, &appErr) {
		payload.Error = appErr
	}

	c.emit(eventType, payload)
}

func (c *Client) emitError(err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.ErrCaptureFailed.WithError(err)
	}
	c.emit(EventError, appErr)
}

func (c *Client) emit(eventType EventType, data interface{}) {
	message, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now()})
	if err != nil {
		c.logger.Error("marshal capture event", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		c.logger.Warn("capture client too slow, dropping event", "type", eventType)
	}
}

// ReadPump starts the session and processes messages until the socket
// closes. It always stops the session and releases the device.
func (c *Client) ReadPump(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		c.session.Stop()
		c.hub.Unregister(c)
		c.closeSend()
		_ = c.conn.Close()
	}()

	if err := c.session.Start(ctx); err != nil {
		c.emitError(err)
		return
	}

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleFrame(data)
		case websocket.TextMessage:
			c.handleCommand(ctx, strings.TrimSpace(string(data)))
		}
	}
}

func (c *Client) handleFrame(data []byte) {
	img, err := capture.DecodeFrame(data)
	if err != nil {
		c.logger.Debug("dropping undecodable frame", "error", err)
		return
	}

	first, err := c.source.Push(img)
	if err != nil {
		// frames arriving while stopped or captured are expected
		return
	}
	if first {
		b := img.Bounds()
		c.session.OnStreamReady(b.Dx(), b.Dy())
	}
}

func (c *Client) handleCommand(ctx context.Context, cmd string) {
	switch cmd {
	case CommandStart:
		if err := c.session.Start(ctx); err != nil {
			c.emitError(err)
		}
	case CommandCapture:
		if _, err := c.session.CaptureNow(ctx); err != nil {
			c.emitError(err)
		}
	case CommandStop:
		c.session.Stop()
	case CommandRetake:
		if err := c.session.Retake(ctx); err != nil {
			c.emitError(err)
		}
	default:
		c.emitError(domain.ErrBadRequest.WithMessage("unknown command: " + cmd))
	}
}

func (c *Client) logCapture(size int) {
	_ = c.auditLogger.Log(context.Background(), audit.Event{
		EventType: audit.EventPhotoCaptured,
		SubjectID: c.device,
		Provider:  "websocket",
		Success:   true,
		Metadata:  map[string]string{"bytes": strconv.Itoa(size)},
	})
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// Handler upgrades GET /v1/ws/capture/:device into a capture client
func Handler(hub *Hub, opts Options) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		device := conn.Params("device")
		client := NewClient(hub, conn, device, opts)

		if err := hub.Register(client); err != nil {
			client.emitError(err)
			client.closeSend()
			client.WritePump()
			return
		}

		go client.WritePump()
		client.ReadPump(context.Background())
	})
}

// UpgradeMiddleware rejects plain HTTP requests on websocket routes
func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
