package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
	"github.com/saturnino-fabrica-de-software/veriface/internal/capture"
)

type message struct {
	typ  int
	data []byte
}

// fakeConn feeds queued messages to ReadMessage and records writes
type fakeConn struct {
	in      chan message
	mu      sync.Mutex
	written [][]byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan message, 16)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	m, ok := <-f.in
	if !ok {
		return 0, nil, io.EOF
	}
	return m.typ, m.data, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type receivedEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

type receivedState struct {
	Phase              string `json:"phase"`
	CountdownRemaining int    `json:"countdown_remaining"`
	Image              []byte `json:"image"`
}

type receivedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func nextEvent(t *testing.T, c *Client) receivedEvent {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var ev receivedEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return receivedEvent{}
	}
}

func nextState(t *testing.T, c *Client) (EventType, receivedState) {
	t.Helper()
	ev := nextEvent(t, c)
	var st receivedState
	require.NoError(t, json.Unmarshal(ev.Data, &st))
	return ev.Type, st
}

func pngFrame(t *testing.T, fill func(x, y int) uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func checkerboard(x, y int) uint8 {
	if (x+y)%2 == 0 {
		return 50
	}
	return 200
}

type testClient struct {
	client *Client
	conn   *fakeConn
	sched  *capture.ManualScheduler
	hub    *Hub
	audit  *recordingAudit
	done   chan struct{}
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func startClient(t *testing.T) *testClient {
	t.Helper()

	tc := &testClient{
		conn:  newFakeConn(),
		sched: capture.NewManualScheduler(),
		hub:   NewHub(),
		audit: &recordingAudit{},
		done:  make(chan struct{}),
	}
	tc.client = NewClient(tc.hub, tc.conn, "cam-1", Options{
		Capture:        capture.DefaultConfig(),
		AuditLogger:    tc.audit,
		SessionOptions: []capture.Option{capture.WithScheduler(tc.sched)},
	})
	require.NoError(t, tc.hub.Register(tc.client))

	go func() {
		tc.client.ReadPump(context.Background())
		close(tc.done)
	}()

	typ, st := nextState(t, tc.client)
	require.Equal(t, EventState, typ)
	require.Equal(t, "streaming_not_ready", st.Phase)
	return tc
}

func (tc *testClient) frame(t *testing.T, data []byte) {
	tc.conn.in <- message{typ: websocket.BinaryMessage, data: data}
}

func (tc *testClient) command(cmd string) {
	tc.conn.in <- message{typ: websocket.TextMessage, data: []byte(cmd)}
}

func (tc *testClient) close(t *testing.T) {
	t.Helper()
	close(tc.conn.in)
	select {
	case <-tc.done:
	case <-time.After(time.Second):
		t.Fatal("read pump did not exit")
	}
}

func TestClient_ManualCapture(t *testing.T) {
	tc := startClient(t)

	tc.frame(t, pngFrame(t, func(int, int) uint8 { return 128 }))
	_, st := nextState(t, tc.client)
	assert.Equal(t, "ready_no_face", st.Phase)

	tc.command(CommandCapture)
	typ, st := nextState(t, tc.client)
	assert.Equal(t, EventCaptured, typ)
	assert.Equal(t, "captured", st.Phase)
	assert.NotEmpty(t, st.Image)

	_, err := capture.DecodeFrame(st.Image)
	assert.NoError(t, err, "captured image should be a decodable JPEG")

	tc.close(t)
	assert.False(t, tc.hub.IsActive("cam-1"))
	require.Len(t, tc.audit.events, 1)
	assert.Equal(t, audit.EventPhotoCaptured, tc.audit.events[0].EventType)
}

func TestClient_AutoCapture(t *testing.T) {
	tc := startClient(t)

	tc.frame(t, pngFrame(t, checkerboard))
	_, st := nextState(t, tc.client)
	require.Equal(t, "ready_no_face", st.Phase)

	for i := 0; i < 3; i++ {
		tc.sched.Advance(300 * time.Millisecond)
	}
	tc.sched.Advance(3 * time.Second)

	var captured *receivedState
	for captured == nil {
		typ, st := nextState(t, tc.client)
		if typ == EventCaptured {
			captured = &st
		}
	}
	assert.NotEmpty(t, captured.Image)
	assert.Equal(t, 1, tc.client.session.Captures())
	assert.Equal(t, 0, tc.sched.Active())

	tc.close(t)
}

func TestClient_CommandErrors(t *testing.T) {
	tc := startClient(t)

	tc.command(CommandCapture)
	ev := nextEvent(t, tc.client)
	assert.Equal(t, EventError, ev.Type)
	var appErr receivedError
	require.NoError(t, json.Unmarshal(ev.Data, &appErr))
	assert.Equal(t, "CAPTURE_FAILED", appErr.Code)

	tc.command("dance")
	ev = nextEvent(t, tc.client)
	assert.Equal(t, EventError, ev.Type)
	require.NoError(t, json.Unmarshal(ev.Data, &appErr))
	assert.Equal(t, "BAD_REQUEST", appErr.Code)

	tc.close(t)
}

func TestClient_StopAndRestart(t *testing.T) {
	tc := startClient(t)

	tc.frame(t, pngFrame(t, checkerboard))
	_, st := nextState(t, tc.client)
	require.Equal(t, "ready_no_face", st.Phase)

	tc.command(CommandStop)
	_, st = nextState(t, tc.client)
	assert.Equal(t, "idle", st.Phase)
	assert.Equal(t, 0, tc.sched.Active())

	tc.command(CommandStart)
	_, st = nextState(t, tc.client)
	assert.Equal(t, "streaming_not_ready", st.Phase)

	tc.close(t)
}

func TestClient_RetakeAfterCapture(t *testing.T) {
	tc := startClient(t)

	tc.frame(t, pngFrame(t, checkerboard))
	nextState(t, tc.client)
	tc.command(CommandCapture)
	typ, _ := nextState(t, tc.client)
	require.Equal(t, EventCaptured, typ)

	tc.command(CommandRetake)
	_, st := nextState(t, tc.client)
	assert.Equal(t, "streaming_not_ready", st.Phase)

	tc.frame(t, pngFrame(t, checkerboard))
	_, st = nextState(t, tc.client)
	assert.Equal(t, "ready_no_face", st.Phase)

	tc.close(t)
}

func TestClient_UndecodableFrameIsIgnored(t *testing.T) {
	tc := startClient(t)

	tc.frame(t, []byte("not an image"))
	tc.frame(t, pngFrame(t, checkerboard))

	_, st := nextState(t, tc.client)
	assert.Equal(t, "ready_no_face", st.Phase)

	tc.close(t)
}

func TestClient_WritePumpDeliversQueuedEvents(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(NewHub(), conn, "cam-9", Options{})

	client.emit(EventState, map[string]string{"phase": "idle"})
	client.closeSend()
	client.WritePump()

	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Len(t, conn.written, 1)
	assert.Contains(t, string(conn.written[0]), `"capture.state"`)
	assert.True(t, conn.closed)

	// emitting after close is a no-op
	client.emit(EventState, nil)
}
