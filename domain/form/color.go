package form

import (
	"errors"
	"image/color"
	"regexp"
	"strconv"
)

// DefaultColor is the foreground used until the user commits another one.
const DefaultColor = "#000000"

var (
	partialHexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{0,6}$`)
	fullHexPattern    = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

	errInvalidHex = errors.New("invalid hex color")
)

// MatchPartialHex reports whether s is acceptable while the user is still typing.
func MatchPartialHex(s string) bool {
	return partialHexPattern.MatchString(s)
}

// MatchHex reports whether s is a complete #rrggbb color.
func MatchHex(s string) bool {
	return fullHexPattern.MatchString(s)
}

// ParseHex converts #rrggbb into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	if !MatchHex(s) {
		return color.RGBA{}, errInvalidHex
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
