package installer

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/buildshim/internal/ctxlog"
)

// Method names understood by the Dispatcher.
const (
	MethodCanInstall = "canInstallPackages"
	MethodInstall    = "installApk"
)

// ArgPath is the argument of MethodInstall naming the package archive.
const ArgPath = "path"

var (
	// ErrNotImplemented is returned for a method the bridge does not know.
	ErrNotImplemented = errors.New("method not implemented")
	// ErrMissingArgument is returned when a required argument is absent or empty.
	ErrMissingArgument = errors.New("missing argument")
)

// Bridge talks to the platform package installer.
type Bridge interface {
	// CanInstallPackages reports whether the application may request
	// package installs.
	CanInstallPackages(ctx context.Context) (bool, error)
	// InstallPackage hands the archive at path to the platform installer.
	InstallPackage(ctx context.Context, path string) error
}

// Dispatcher routes method calls to a Bridge.
type Dispatcher struct {
	bridge Bridge
}

// NewDispatcher creates a dispatcher over b.
func NewDispatcher(b Bridge) *Dispatcher {
	return &Dispatcher{bridge: b}
}

// Call invokes method with args. canInstallPackages returns a bool,
// installApk returns nil on success.
func (d *Dispatcher) Call(ctx context.Context, method string, args map[string]any) (any, error) {
	logger := ctxlog.FromContext(ctx).With("method", method)
	logger.Debug("Installer method called.")

	switch method {
	case MethodCanInstall:
		ok, err := d.bridge.CanInstallPackages(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		return ok, nil
	case MethodInstall:
		path, _ := args[ArgPath].(string)
		if path == "" {
			return nil, fmt.Errorf("%s: %w %q", method, ErrMissingArgument, ArgPath)
		}
		if err := d.bridge.InstallPackage(ctx, path); err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		logger.Info("Package handed to installer.", "path", path)
		return nil, nil
	}
	return nil, fmt.Errorf("%q: %w", method, ErrNotImplemented)
}
