package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Intent constants of the platform package installer.
const (
	ActionInstallPackage = "android.intent.action.INSTALL_PACKAGE"
	MimePackageArchive   = "application/vnd.android.package-archive"

	FlagGrantReadURIPermission = 0x00000001
	FlagActivityNewTask        = 0x10000000
)

// InstallPermissionLevel is the first API level where installs from an
// application need an explicit user permission.
const InstallPermissionLevel = 26

// Intent is the request handed to the platform.
type Intent struct {
	Action string `yaml:"action"`
	Data   string `yaml:"data"`
	Type   string `yaml:"type"`
	Flags  int    `yaml:"flags"`
}

// Launcher starts an activity for an intent.
type Launcher interface {
	Launch(ctx context.Context, in Intent) error
}

// LocalBridge implements Bridge against the platform the host runs on.
type LocalBridge struct {
	// APILevel is the platform API level of the device.
	APILevel int
	// PackageName is the application package; the content provider authority
	// is derived from it.
	PackageName string
	// FilesDir is the directory the content provider shares.
	FilesDir string
	// Permission reports whether the user allowed installs from this
	// application. Consulted only from InstallPermissionLevel on.
	Permission func() bool
	Launcher   Launcher
}

// CanInstallPackages implements Bridge.
func (b *LocalBridge) CanInstallPackages(ctx context.Context) (bool, error) {
	if b.APILevel < InstallPermissionLevel {
		return true, nil
	}
	if b.Permission == nil {
		return false, nil
	}
	return b.Permission(), nil
}

// InstallPackage implements Bridge.
func (b *LocalBridge) InstallPackage(ctx context.Context, path string) error {
	if b.Launcher == nil {
		return fmt.Errorf("no launcher configured")
	}
	uri, err := b.ContentURI(path)
	if err != nil {
		return err
	}
	return b.Launcher.Launch(ctx, Intent{
		Action: ActionInstallPackage,
		Data:   uri,
		Type:   MimePackageArchive,
		Flags:  FlagGrantReadURIPermission | FlagActivityNewTask,
	})
}

// Authority is the content provider authority of the application.
func (b *LocalBridge) Authority() string {
	return b.PackageName + ".fileprovider"
}

// ContentURI maps a file under FilesDir to its content:// locator.
func (b *LocalBridge) ContentURI(path string) (string, error) {
	if b.PackageName == "" {
		return "", fmt.Errorf("no package name configured")
	}
	rel := path
	if b.FilesDir != "" {
		var err error
		rel, err = filepath.Rel(b.FilesDir, path)
		if err != nil {
			return "", fmt.Errorf("%s is not shared by the file provider: %w", path, err)
		}
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("%s is not shared by the file provider", path)
	}
	return fmt.Sprintf("content://%s/%s", b.Authority(), rel), nil
}
