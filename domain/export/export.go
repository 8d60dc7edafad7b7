// Package export serializes a rendered symbol into a downloadable file named
// after the reference embedded in the tagged URL.
package export

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/prasetyowira/qrtag/domain/symbol"
	"github.com/prasetyowira/qrtag/domain/tagger"
)

// DefaultBaseName names the file when no reference can be recovered.
const DefaultBaseName = "qr"

// File is an in-memory download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReferenceFromURL extracts the qr_ref value from tagged. For a well-formed
// URL this is its qr_ref query parameter. Otherwise tagged is in the fallback
// form "text?qr_ref=<ref>" and the reference is the final suffix, whatever
// the text before it contains.
func ReferenceFromURL(tagged string) string {
	ref := ""
	if tagger.WellFormed(tagged) {
		if u, err := url.Parse(tagged); err == nil {
			ref = u.Query().Get(tagger.ReferenceParam)
		}
	} else {
		ref = fallbackReference(tagged)
	}
	ref = sanitize(ref)
	if ref == "" {
		return DefaultBaseName
	}
	return ref
}

// FileName returns <reference>.<extension> for tagged.
func FileName(tagged string, format symbol.Format) string {
	return ReferenceFromURL(tagged) + "." + format.Extension()
}

// Export serializes sym in the requested format. A nil symbol means nothing
// has been generated yet; Export then returns a nil File and no error.
func Export(sym symbol.Symbol, format symbol.Format, tagged string) (*File, error) {
	if sym == nil {
		return nil, nil
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case symbol.FormatVector:
		data, err = sym.Vector()
	case symbol.FormatRaster:
		data, err = sym.Raster()
	default:
		return nil, symbol.ErrUnknownFormat
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	return &File{
		Name:        FileName(tagged, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// fallbackReference reads the suffix appended by the fallback tagging form.
// Strings without that suffix are scanned for their last qr_ref pair.
func fallbackReference(s string) string {
	suffix := "?" + tagger.ReferenceParam + "="
	if i := strings.LastIndex(s, suffix); i >= 0 {
		return s[i+len(suffix):]
	}
	return scanReference(s)
}

// scanReference finds the last qr_ref pair in s, ending at & or #.
func scanReference(s string) string {
	marker := tagger.ReferenceParam + "="
	i := strings.LastIndex(s, marker)
	if i < 0 {
		return ""
	}
	v := s[i+len(marker):]
	if j := strings.IndexAny(v, "&#"); j >= 0 {
		v = v[:j]
	}
	if decoded, err := url.QueryUnescape(v); err == nil {
		v = decoded
	}
	return v
}

func sanitize(ref string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		}
		return '_'
	}, strings.Trim(ref, ". "))
}
