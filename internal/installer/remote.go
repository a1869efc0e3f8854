package installer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/buildshim/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultTimeout bounds one remote call.
const DefaultTimeout = 30 * time.Second

// ResultSuffix is appended to a method name to form the reply event.
const ResultSuffix = ":result"

// Channel is the part of a socket.io socket the remote bridge uses.
type Channel interface {
	Once(ev types.EventName, listeners ...types.Listener) error
	Emit(ev string, args ...any) error
}

// RemoteBridge forwards calls to a device agent over socket.io. The agent
// answers `<method>` with `<method>:result`, carrying either the value or an
// object with an "error" field.
type RemoteBridge struct {
	ch      Channel
	sock    *socket.Socket
	Timeout time.Duration
}

// NewRemoteBridge creates a bridge over an established channel.
func NewRemoteBridge(ch Channel) *RemoteBridge {
	return &RemoteBridge{ch: ch, Timeout: DefaultTimeout}
}

// Dial connects to the agent at rawURL and returns a bridge over the
// connection.
func Dial(ctx context.Context, rawURL, namespace string, insecureSkipVerify bool) (*RemoteBridge, error) {
	logger := ctxlog.FromContext(ctx).With("agent", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if insecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to installer agent.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		b := NewRemoteBridge(io)
		b.sock = io
		return b, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(15 * time.Second):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after 15s waiting for socket.io connection")
	}
}

// Close disconnects a dialed bridge.
func (b *RemoteBridge) Close() error {
	if b.sock != nil {
		b.sock.Disconnect()
	}
	return nil
}

// CanInstallPackages implements Bridge.
func (b *RemoteBridge) CanInstallPackages(ctx context.Context) (bool, error) {
	v, err := b.call(ctx, MethodCanInstall)
	if err != nil {
		return false, err
	}
	ok, isBool := v.(bool)
	if !isBool {
		return false, fmt.Errorf("%s: unexpected reply %v", MethodCanInstall, v)
	}
	return ok, nil
}

// InstallPackage implements Bridge.
func (b *RemoteBridge) InstallPackage(ctx context.Context, path string) error {
	_, err := b.call(ctx, MethodInstall, map[string]any{ArgPath: path})
	return err
}

type reply struct {
	value any
	err   error
}

func (b *RemoteBridge) call(ctx context.Context, method string, args ...any) (any, error) {
	logger := ctxlog.FromContext(ctx).With("method", method)

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan reply, 1)
	resultEvent := method + ResultSuffix
	if err := b.ch.Once(types.EventName(resultEvent), func(data ...any) {
		var v any
		if len(data) > 0 {
			v = data[0]
		}
		done <- decodeReply(v)
	}); err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", resultEvent, err)
	}

	logger.Debug("Emitting installer call.")
	if err := b.ch.Emit(method, args...); err != nil {
		return nil, fmt.Errorf("emitting %s: %w", method, err)
	}

	select {
	case <-opCtx.Done():
		return nil, fmt.Errorf("timed out after %v waiting for event '%s'", timeout, resultEvent)
	case r := <-done:
		return r.value, r.err
	}
}

func decodeReply(v any) reply {
	m, ok := v.(map[string]any)
	if !ok {
		return reply{value: v}
	}
	msg, ok := m["error"].(string)
	if !ok || msg == "" {
		return reply{value: v}
	}
	switch msg {
	case "not_implemented":
		return reply{err: ErrNotImplemented}
	case "missing_argument":
		return reply{err: ErrMissingArgument}
	}
	return reply{err: fmt.Errorf("agent: %s", msg)}
}
