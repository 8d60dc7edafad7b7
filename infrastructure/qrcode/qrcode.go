package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strconv"

	"github.com/skip2/go-qrcode"

	"github.com/prasetyowira/qrtag/constant"
	"github.com/prasetyowira/qrtag/domain/symbol"
	"github.com/prasetyowira/qrtag/infrastructure/logger"
)

var (
	ErrEmptyPayload = errors.New(constant.ErrEmptyPayload)
	ErrInvalidSize  = errors.New(constant.ErrInvalidSize)
)

// RecoveryLevel is QR error correction level H.
const RecoveryLevel = qrcode.Highest

// Generator renders payloads with skip2/go-qrcode
type Generator struct{}

// NewGenerator creates a new QR code generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Render encodes payload once; the returned Symbol serves both raster and
// vector output from the same module matrix.
func (g *Generator) Render(payload string, opts symbol.Options) (symbol.Symbol, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	if opts.Size <= 0 {
		return nil, ErrInvalidSize
	}

	q, err := qrcode.New(payload, RecoveryLevel)
	if err != nil {
		logger.Warn("Failed to encode QR payload", logger.LoggerInfo{
			ContextFunction: constant.CtxRender,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeQREncode,
				Message: err.Error(),
				Type:    constant.ErrTypeRender,
			},
			Data: map[string]interface{}{
				constant.DataBytes: len(payload),
			},
		})
		return nil, fmt.Errorf("encode qr code: %w", err)
	}

	fg := opts.Foreground
	if fg == nil {
		fg = color.Black
	}
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	q.ForegroundColor = fg
	q.BackgroundColor = bg
	q.DisableBorder = !opts.Margin

	logger.Debug("QR symbol rendered", logger.LoggerInfo{
		ContextFunction: constant.CtxRender,
		Data: map[string]interface{}{
			constant.DataQRSize: opts.Size,
			"version":           q.VersionNumber,
		},
	})

	return &Symbol{code: q, size: opts.Size}, nil
}

// Symbol is a rendered QR code
type Symbol struct {
	code *qrcode.QRCode
	size int
}

// Payload returns the encoded content
func (s *Symbol) Payload() string {
	return s.code.Content
}

// Size returns the rendered edge length in pixels
func (s *Symbol) Size() int {
	return s.size
}

// Raster encodes the symbol as a size x size PNG
func (s *Symbol) Raster() ([]byte, error) {
	png, err := s.code.PNG(s.size)
	if err != nil {
		logger.Error("Failed to encode PNG", logger.LoggerInfo{
			ContextFunction: constant.CtxRender,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeQRRaster,
				Message: err.Error(),
				Type:    constant.ErrTypeRender,
			},
		})
		return nil, fmt.Errorf("generate qr png: %w", err)
	}
	return png, nil
}

// Vector builds a self-contained SVG document. Each row of dark modules is
// emitted as horizontal runs inside a single path.
func (s *Symbol) Vector() ([]byte, error) {
	bitmap := s.code.Bitmap()
	n := len(bitmap)

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&buf,
		`<svg xmlns="http://www.w3.org/2000/svg" version="1.1" viewBox="0 0 %d %d" width="%d" height="%d" shape-rendering="crispEdges">`,
		n, n, s.size, s.size)
	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="%s"/>`, n, n, hexColor(s.code.BackgroundColor))
	fmt.Fprintf(&buf, `<path fill="%s" d="`, hexColor(s.code.ForegroundColor))
	for y, row := range bitmap {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			buf.WriteString("M" + strconv.Itoa(start) + " " + strconv.Itoa(y) +
				"h" + strconv.Itoa(x-start) + "v1h-" + strconv.Itoa(x-start) + "z")
		}
	}
	buf.WriteString(`"/></svg>` + "\n")

	return buf.Bytes(), nil
}

// Preview renders the symbol with half-block characters for terminals
func (s *Symbol) Preview() string {
	return s.code.ToSmallString(false)
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
