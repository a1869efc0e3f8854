// Package semver wraps github.com/Masterminds/semver/v3 for matching plugin
// versions against the version ranges adapters declare.
package semver

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
type Version struct {
	v *mm.Version
}

// Constraint is a semantic version constraint.
//
// Examples:
// - ">=7.0.0, <8.0.0"
// - "<7.0.0"
// - "^8"
type Constraint struct {
	raw string
	c   *mm.Constraints
}

// ParseVersion accepts loose versions such as "8.2" or "v7.4.1".
func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func ParseConstraint(raw string) (Constraint, error) {
	c, err := mm.NewConstraint(raw)
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}
	return Constraint{raw: raw, c: c}, nil
}

func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return v.v == nil
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

func (c Constraint) String() string {
	return c.raw
}

// Satisfies reports whether v is within c. Unparsed values never match.
// Pre-releases are matched by their release version, so 8.3.0-alpha05 falls
// in the same range as 8.3.0.
func Satisfies(v Version, c Constraint) bool {
	if v.v == nil || c.c == nil {
		return false
	}
	return c.c.Check(release(v.v))
}

func release(v *mm.Version) *mm.Version {
	if v.Prerelease() == "" {
		return v
	}
	r, err := v.SetPrerelease("")
	if err != nil {
		return v
	}
	return &r
}
