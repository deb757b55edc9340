// Package version provides provisioning protocol version parsing and
// comparison.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the provisioning protocol version implemented by this module.
const Current = "v1.1"

// ProtocolVersion is a parsed "vMAJOR.MINOR" protocol version.
type ProtocolVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "vMAJOR.MINOR" version string. The leading "v" is optional.
func Parse(s string) (ProtocolVersion, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) != 2 {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: expected vMAJOR.MINOR", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return ProtocolVersion{Major: uint16(major), Minor: uint16(minor)}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ProtocolVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "vMAJOR.MINOR".
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v ProtocolVersion) Compatible(other ProtocolVersion) bool {
	return v.Major == other.Major
}

// CompatibleWithCurrent reports whether s parses to a version compatible with
// Current.
func CompatibleWithCurrent(s string) (bool, error) {
	v, err := Parse(s)
	if err != nil {
		return false, err
	}
	return MustParse(Current).Compatible(v), nil
}
