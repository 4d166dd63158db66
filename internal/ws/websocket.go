package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lxzan/gws"
	"github.com/rs/zerolog"

	"krakenkit/pkg/core"
)

// Config holds the options of a single WebSocket connection.
type Config struct {
	// URL is the ws:// or wss:// endpoint.
	URL string
	// Header is sent with the opening handshake.
	Header http.Header
	// PingInterval is the period of keepalive pings. Zero selects the
	// default and a negative value disables them.
	PingInterval time.Duration
	// PongWait is how long past a ping interval the socket may stay silent
	// before it is considered dead.
	PongWait time.Duration
	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout time.Duration
	// BufferSize is the number of inbound frames held for a slow reader.
	BufferSize int
}

func (c *Config) applyDefaults() {
	if c.PingInterval == 0 {
		c.PingInterval = 10 * time.Second
	}
	if c.PingInterval < 0 {
		c.PingInterval = 0
	}
	if c.PongWait == 0 {
		c.PongWait = 20 * time.Second
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.BufferSize == 0 {
		c.BufferSize = 100
	}
}

// Conn is one WebSocket connection. Inbound text frames are delivered in
// order on Frames; the channel is closed once the socket is gone. Conn does
// not reconnect.
type Conn struct {
	config  Config
	state   *State
	conn    *gws.Conn
	handler *eventHandler
	logger  zerolog.Logger

	frames chan []byte
	opened chan struct{}
	closed chan struct{}
	stop   chan struct{}

	mu        sync.Mutex
	closeErr  error
	closeOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

type eventHandler struct {
	c *Conn
}

// Dial opens a connection and waits until the handshake completes or ctx ends.
func Dial(ctx context.Context, config Config, logger zerolog.Logger) (*Conn, error) {
	config.applyDefaults()

	c := &Conn{
		config: config,
		state:  &State{},
		logger: logger,
		frames: make(chan []byte, config.BufferSize),
		opened: make(chan struct{}),
		closed: make(chan struct{}),
		stop:   make(chan struct{}),
	}
	c.state.Store(StateConnecting)
	c.handler = &eventHandler{c: c}

	socket, _, err := gws.NewClient(c.handler, &gws.ClientOption{
		Addr:             config.URL,
		RequestHeader:    config.Header,
		HandshakeTimeout: config.HandshakeTimeout,
	})
	if err != nil {
		c.state.Store(StateClosed)
		return nil, fmt.Errorf("connect websocket: %w", err)
	}
	c.conn = socket

	// frames is closed only once ReadLoop has returned, so no OnMessage can
	// still be sending.
	c.wg.Go(func() {
		socket.ReadLoop()
		close(c.frames)
	})

	select {
	case <-c.opened:
	case <-ctx.Done():
		_ = socket.NetConn().Close()
		c.wg.Wait()
		return nil, ctx.Err()
	}

	if config.PingInterval > 0 {
		c.wg.Go(c.keepalive)
	}
	return c, nil
}

func (h *eventHandler) OnOpen(socket *gws.Conn) {
	h.c.state.Store(StateConnected)
	close(h.c.opened)
	h.c.refreshDeadline(socket)

	h.c.logger.Info().Str("url", h.c.config.URL).Msg("websocket connected")
}

// OnClose may run on a writer goroutine when a write fails.
func (h *eventHandler) OnClose(socket *gws.Conn, err error) {
	h.c.closeOnce.Do(func() {
		h.c.mu.Lock()
		h.c.closeErr = err
		h.c.mu.Unlock()

		h.c.state.Store(StateClosed)
		close(h.c.closed)

		h.c.logger.Info().Err(err).Str("url", h.c.config.URL).Msg("websocket closed")
	})
}

func (h *eventHandler) OnPing(socket *gws.Conn, payload []byte) {
	h.c.refreshDeadline(socket)
	_ = socket.WritePong(payload)
}

func (h *eventHandler) OnPong(socket *gws.Conn, payload []byte) {
	h.c.refreshDeadline(socket)
}

func (h *eventHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	h.c.refreshDeadline(socket)

	if message.Opcode != gws.OpcodeText && message.Opcode != gws.OpcodeBinary {
		return
	}
	// The buffer is recycled by Close.
	data := append([]byte(nil), message.Bytes()...)
	if len(data) == 0 {
		return
	}

	if e := h.c.logger.Trace(); e.Enabled() {
		e.Bytes("data", data).Msg("received websocket frame")
	}

	select {
	case h.c.frames <- data:
	case <-h.c.stop:
	case <-h.c.closed:
	}
}

func (c *Conn) refreshDeadline(socket *gws.Conn) {
	wait := c.config.PongWait
	if c.config.PingInterval > 0 {
		wait += c.config.PingInterval
	}
	_ = socket.SetDeadline(time.Now().Add(wait))
}

func (c *Conn) keepalive() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				c.logger.Debug().Err(err).Msg("websocket ping failed")
				return
			}
		case <-c.closed:
			return
		case <-c.stop:
			return
		}
	}
}

// Frames returns the inbound frames. It is closed when the connection ends.
func (c *Conn) Frames() <-chan []byte {
	return c.frames
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

// Err returns the reason the connection ended, or nil while it is open.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

func (c *Conn) State() ConnState {
	return c.state.Load()
}

// WriteMessage sends one text frame.
func (c *Conn) WriteMessage(data []byte) error {
	if c.state.Load() != StateConnected {
		return core.ErrNotConnected
	}
	return c.conn.WriteMessage(gws.OpcodeText, data)
}

// WriteJSON encodes v with sonic and sends it as one text frame.
func (c *Conn) WriteJSON(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return &MarshalError{Err: err}
	}
	return c.WriteMessage(data)
}

// Close closes the socket and waits for the read loop to finish. Calling it
// again is a no-op.
func (c *Conn) Close() error {
	c.stopOnce.Do(func() {
		close(c.stop)
		_ = c.conn.NetConn().Close()
	})
	c.wg.Wait()
	return nil
}

// MarshalError wraps a failure to encode an outbound message.
type MarshalError struct {
	Err error
}

func (e *MarshalError) Error() string { return "marshal websocket message: " + e.Err.Error() }
func (e *MarshalError) Unwrap() error { return e.Err }
