// Package stream carries classified Kraken WebSocket messages over a single
// connection. A Stream does not reconnect; once the remote side closes, Next
// reports core.ErrStreamClosed and the caller dials again.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"krakenkit/internal/metrics"
	"krakenkit/internal/ws"
	"krakenkit/pkg/core"
	"krakenkit/pkg/wsv1"
	"krakenkit/pkg/wsv2"
)

type ConnState = ws.ConnState

const (
	StateConnecting = ws.StateConnecting
	StateConnected  = ws.StateConnected
	StateClosed     = ws.StateClosed
)

// Classifier turns one raw frame into a message.
type Classifier[M any] func(data []byte) (M, error)

type options struct {
	logger       zerolog.Logger
	header       http.Header
	bufferSize   int
	pingInterval time.Duration
	version      string
}

// Option configures Dial.
type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHeader adds headers to the opening handshake.
func WithHeader(header http.Header) Option {
	return func(o *options) { o.header = header }
}

// WithBufferSize sets how many frames may queue ahead of Next.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithPingInterval sets the keepalive period. A negative value disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(o *options) { o.pingInterval = d }
}

// WithVersion labels the stream's frame metrics.
func WithVersion(version string) Option {
	return func(o *options) { o.version = version }
}

// Stream is a connection whose inbound frames are classified into M.
type Stream[M any] struct {
	conn     *ws.Conn
	classify Classifier[M]
	logger   zerolog.Logger
	version  string
}

// Dial connects to rawURL and waits for the handshake.
func Dial[M any](ctx context.Context, rawURL string, classify Classifier[M], opts ...Option) (*Stream[M], error) {
	o := options{logger: zerolog.Nop(), version: "unknown"}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &core.WSSError{Kind: core.WSSErrorURLParse, Err: err}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, &core.WSSError{Kind: core.WSSErrorURLParse, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	logger := o.logger.With().Str("component", "stream").Str("version", o.version).Logger()
	conn, err := ws.Dial(ctx, ws.Config{
		URL:          u.String(),
		Header:       o.header,
		PingInterval: o.pingInterval,
		BufferSize:   o.bufferSize,
	}, logger)
	if err != nil {
		return nil, &core.WSSError{Kind: core.WSSErrorTransport, Err: err}
	}

	return &Stream[M]{
		conn:     conn,
		classify: classify,
		logger:   logger,
		version:  o.version,
	}, nil
}

// ConnectV1 opens the public v1 endpoint.
func ConnectV1(ctx context.Context, cfg *core.Config, opts ...Option) (*Stream[wsv1.Message], error) {
	return Dial(ctx, cfg.WSPublicURL, wsv1.Classify, withVersion("v1", opts)...)
}

// ConnectV1Auth opens the authenticated v1 endpoint. Private subscriptions
// still need a token from the REST API.
func ConnectV1Auth(ctx context.Context, cfg *core.Config, opts ...Option) (*Stream[wsv1.Message], error) {
	return Dial(ctx, cfg.WSAuthURL, wsv1.Classify, withVersion("v1", opts)...)
}

func ConnectV2(ctx context.Context, cfg *core.Config, opts ...Option) (*Stream[wsv2.Message], error) {
	return Dial(ctx, cfg.WSV2PublicURL, wsv2.Classify, withVersion("v2", opts)...)
}

func ConnectV2Auth(ctx context.Context, cfg *core.Config, opts ...Option) (*Stream[wsv2.Message], error) {
	return Dial(ctx, cfg.WSV2AuthURL, wsv2.Classify, withVersion("v2", opts)...)
}

func withVersion(version string, opts []Option) []Option {
	return append([]Option{WithVersion(version)}, opts...)
}

// Send encodes v as JSON and writes it as one frame.
func (s *Stream[M]) Send(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.conn.WriteJSON(v)
	if err == nil {
		return nil
	}
	var me *ws.MarshalError
	if errors.As(err, &me) {
		return &core.WSSError{Kind: core.WSSErrorSerde, Err: me.Err}
	}
	if errors.Is(err, core.ErrNotConnected) {
		return &core.WSSError{Kind: core.WSSErrorTransport, Err: core.ErrStreamClosed}
	}
	return &core.WSSError{Kind: core.WSSErrorTransport, Err: err}
}

// Subscribe sends a subscription request. The acknowledgement arrives later
// through Next like any other message.
func (s *Stream[M]) Subscribe(ctx context.Context, msg any) error {
	return s.Send(ctx, msg)
}

// Next blocks until a message arrives, the connection ends, or ctx is done.
// A frame that fails to classify is returned as a *core.ClassificationError
// and the stream remains usable.
func (s *Stream[M]) Next(ctx context.Context) (M, error) {
	var zero M

	select {
	case data, ok := <-s.conn.Frames():
		if !ok {
			return zero, s.closedError()
		}
		msg, err := s.classify(data)
		if err != nil {
			s.observe(err)
			s.logger.Debug().Err(err).Msg("frame not classified")
			return zero, err
		}
		metrics.FramesTotal.WithLabelValues(s.version, "ok").Inc()
		return msg, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *Stream[M]) observe(err error) {
	kind := "error"
	var ce *core.ClassificationError
	if errors.As(err, &ce) {
		kind = ce.Kind.String()
	}
	metrics.FramesTotal.WithLabelValues(s.version, kind).Inc()
}

func (s *Stream[M]) closedError() error {
	if cause := s.conn.Err(); cause != nil {
		return &core.WSSError{Kind: core.WSSErrorTransport, Err: fmt.Errorf("%w: %w", core.ErrStreamClosed, cause)}
	}
	return &core.WSSError{Kind: core.WSSErrorTransport, Err: core.ErrStreamClosed}
}

// State reports the connection's lifecycle state.
func (s *Stream[M]) State() ConnState {
	return s.conn.State()
}

// Done is closed when the connection ends.
func (s *Stream[M]) Done() <-chan struct{} {
	return s.conn.Done()
}

// Close closes the connection. Frames not yet read are dropped.
func (s *Stream[M]) Close() error {
	return s.conn.Close()
}
