// Package publish streams run records to a live consumer while a sweep is in
// progress.
package publish

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/ctxlog"
	"github.com/vk/isobench/internal/results"
)

// DefaultEvent is emitted when the configuration names none.
const DefaultEvent = "run_record"

const connectTimeout = 15 * time.Second

// ErrNotConnected is returned by Publish after the connection dropped.
var ErrNotConnected = errors.New("publish: socket.io client not connected")

// Publisher receives every record as soon as it is stored.
type Publisher interface {
	Publish(ctx context.Context, r results.Record) error
	Close() error
}

// Nop discards records.
type Nop struct{}

func (Nop) Publish(context.Context, results.Record) error { return nil }

func (Nop) Close() error { return nil }

// Func adapts a function to a Publisher.
type Func func(ctx context.Context, r results.Record) error

func (f Func) Publish(ctx context.Context, r results.Record) error { return f(ctx, r) }

func (Func) Close() error { return nil }

// SocketIO emits each record as one event on a socket.io namespace.
type SocketIO struct {
	client *socket.Socket
	event  string
}

// Dial connects to the configured server and waits for the connect event.
func Dial(ctx context.Context, cfg config.Publish) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("publisher", "socketio", "url", cfg.URL)

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing publish URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("publish URL %q needs a scheme and host", cfg.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(u.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	manager := socket.NewManager(u.Scheme+"://"+u.Host, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Publisher connected.", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connected <- err:
		default:
		}
	})

	io.Connect()
	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}

	event := cfg.Event
	if event == "" {
		event = DefaultEvent
	}
	return &SocketIO{client: io, event: event}, nil
}

// Publish emits r. The emit is fire-and-forget.
func (p *SocketIO) Publish(_ context.Context, r results.Record) error {
	if !p.client.Connected() {
		return ErrNotConnected
	}
	return p.client.Emit(p.event, r)
}

// Close disconnects from the server.
func (p *SocketIO) Close() error {
	p.client.Disconnect()
	return nil
}

// New returns a Nop for a nil configuration and a connected SocketIO
// otherwise.
func New(ctx context.Context, cfg *config.Publish) (Publisher, error) {
	if cfg == nil {
		return Nop{}, nil
	}
	return Dial(ctx, *cfg)
}
