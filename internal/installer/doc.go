// Package installer is the boundary between the build shim and the platform
// package installer. A Bridge answers whether packages may be installed and
// hands a package archive to the platform. The Dispatcher exposes a Bridge
// through the two method names the host application calls.
package installer
