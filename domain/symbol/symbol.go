// Package symbol defines the contract between the form and whatever renders
// a payload into a scannable QR symbol.
package symbol

import (
	"errors"
	"image/color"
	"strings"

	"github.com/prasetyowira/qrtag/constant"
)

// ErrUnknownFormat is returned for formats outside {png, svg}.
var ErrUnknownFormat = errors.New(constant.ErrUnknownFormat)

// Format selects the representation of an exported symbol.
type Format string

const (
	FormatRaster Format = "png"
	FormatVector Format = "svg"
)

// ParseFormat accepts the format names case-insensitively, plus the aliases
// "raster" and "vector".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "raster":
		return FormatRaster, nil
	case "svg", "vector":
		return FormatVector, nil
	}
	return "", ErrUnknownFormat
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	return f == FormatRaster || f == FormatVector
}

// Extension returns the file extension without a leading dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatVector:
		return "image/svg+xml"
	case FormatRaster:
		return "image/png"
	}
	return "application/octet-stream"
}

// Options controls how a payload is rendered. Error correction is always
// level H.
type Options struct {
	Size       int
	Foreground color.Color
	Background color.Color
	Margin     bool
}

// Symbol is a rendered QR symbol. It is owned by whoever requested it, so
// exporting never has to look it up again.
type Symbol interface {
	Payload() string
	Size() int
	Raster() ([]byte, error)
	Vector() ([]byte, error)
}

// Renderer turns a payload into a Symbol.
type Renderer interface {
	Render(payload string, opts Options) (Symbol, error)
}
