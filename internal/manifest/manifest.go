// Package manifest extracts the package identifier from a subproject's
// sidecar manifest. Reads are best-effort: a missing or unparseable file is
// reported as an error for the caller to skip past.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
)

// ErrNoMatch is returned when the manifest has no package attribute.
var ErrNoMatch = errors.New("no package attribute in manifest")

// packagePattern matches a single well-formed package="value" attribute.
var packagePattern = regexp.MustCompile(`\bpackage\s*=\s*"([^"\s]+)"`)

// Parse returns the first package attribute value in data.
func Parse(data []byte) (string, error) {
	m := packagePattern.FindSubmatch(data)
	if m == nil {
		return "", ErrNoMatch
	}
	return string(m[1]), nil
}

// Reader reads manifests from a file system rooted at the build graph root.
type Reader struct {
	FS fs.FS
}

// NewReader creates a Reader over fsys.
func NewReader(fsys fs.FS) *Reader {
	return &Reader{FS: fsys}
}

// Package reads the manifest at the slash-separated path name and returns its
// package identifier.
func (r *Reader) Package(name string) (string, error) {
	if r == nil || r.FS == nil {
		return "", fmt.Errorf("manifest %s: %w", name, fs.ErrNotExist)
	}
	data, err := fs.ReadFile(r.FS, name)
	if err != nil {
		return "", fmt.Errorf("manifest %s: %w", name, err)
	}
	pkg, err := Parse(data)
	if err != nil {
		return "", fmt.Errorf("manifest %s: %w", name, err)
	}
	return pkg, nil
}
