package installer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zishang520/engine.io/v2/types"
)

// fakeAgent answers emitted methods with canned replies.
type fakeAgent struct {
	mu        sync.Mutex
	listeners map[types.EventName][]types.Listener
	replies   map[string]any
	emitted   []string
	args      [][]any
	emitErr   error
}

func newFakeAgent(replies map[string]any) *fakeAgent {
	return &fakeAgent{listeners: make(map[types.EventName][]types.Listener), replies: replies}
}

func (a *fakeAgent) Once(ev types.EventName, listeners ...types.Listener) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners[ev] = append(a.listeners[ev], listeners...)
	return nil
}

func (a *fakeAgent) Emit(ev string, args ...any) error {
	if a.emitErr != nil {
		return a.emitErr
	}
	a.mu.Lock()
	a.emitted = append(a.emitted, ev)
	a.args = append(a.args, args)
	reply, ok := a.replies[ev]
	event := types.EventName(ev + ResultSuffix)
	listeners := a.listeners[event]
	delete(a.listeners, event)
	a.mu.Unlock()

	if !ok {
		return nil
	}
	go func() {
		for _, l := range listeners {
			l(reply)
		}
	}()
	return nil
}

func TestRemoteBridge_CanInstallPackages(t *testing.T) {
	agent := newFakeAgent(map[string]any{MethodCanInstall: true})
	b := NewRemoteBridge(agent)

	ok, err := b.CanInstallPackages(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{MethodCanInstall}, agent.emitted)
}

func TestRemoteBridge_InstallPackage(t *testing.T) {
	agent := newFakeAgent(map[string]any{MethodInstall: nil})
	b := NewRemoteBridge(agent)

	require.NoError(t, b.InstallPackage(context.Background(), "/sdcard/app.apk"))
	require.Len(t, agent.args, 1)
	assert.Equal(t, []any{map[string]any{ArgPath: "/sdcard/app.apk"}}, agent.args[0])
}

func TestRemoteBridge_ThroughDispatcher(t *testing.T) {
	agent := newFakeAgent(map[string]any{MethodCanInstall: false})
	d := NewDispatcher(NewRemoteBridge(agent))

	v, err := d.Call(context.Background(), MethodCanInstall, nil)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestRemoteBridge_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("agent error reply", func(t *testing.T) {
		agent := newFakeAgent(map[string]any{
			MethodInstall:    map[string]any{"error": "missing_argument"},
			MethodCanInstall: map[string]any{"error": "not_implemented"},
		})
		b := NewRemoteBridge(agent)
		assert.ErrorIs(t, b.InstallPackage(ctx, "x.apk"), ErrMissingArgument)
		_, err := b.CanInstallPackages(ctx)
		assert.ErrorIs(t, err, ErrNotImplemented)
	})

	t.Run("generic agent error", func(t *testing.T) {
		agent := newFakeAgent(map[string]any{MethodInstall: map[string]any{"error": "disk full"}})
		err := NewRemoteBridge(agent).InstallPackage(ctx, "x.apk")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("unexpected reply type", func(t *testing.T) {
		agent := newFakeAgent(map[string]any{MethodCanInstall: "yes"})
		_, err := NewRemoteBridge(agent).CanInstallPackages(ctx)
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		b := NewRemoteBridge(newFakeAgent(nil))
		b.Timeout = 20 * time.Millisecond
		_, err := b.CanInstallPackages(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("emit failure", func(t *testing.T) {
		agent := newFakeAgent(nil)
		agent.emitErr = errors.New("not connected")
		_, err := NewRemoteBridge(agent).CanInstallPackages(ctx)
		assert.ErrorContains(t, err, "not connected")
	})
}
