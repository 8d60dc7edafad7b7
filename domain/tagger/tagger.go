// Package tagger embeds a unique tracking reference into URLs before they are
// encoded as QR symbols.
package tagger

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ReferenceParam is the query parameter carrying the reference.
const ReferenceParam = "qr_ref"

// DefaultLabel is the origin label used by the timestamp scheme.
const DefaultLabel = "qr"

// Clock supplies the generation timestamp.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

// Now implements Clock
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// Scheme builds a reference value from the counter and the generation time.
type Scheme func(counter int, now time.Time) string

// CounterScheme produces qr_<n>. References restart after the counter resets,
// so they are only unique within one session.
func CounterScheme() Scheme {
	return func(counter int, _ time.Time) string {
		return "qr_" + strconv.Itoa(counter)
	}
}

// TimestampScheme produces <label>_<unix millis>_<n>.
func TimestampScheme(label string) Scheme {
	if label == "" {
		label = DefaultLabel
	}
	return func(counter int, now time.Time) string {
		return label + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + strconv.Itoa(counter)
	}
}

// Tagger tags raw input with references drawn from its scheme.
type Tagger struct {
	scheme Scheme
	clock  Clock
}

// New creates a Tagger. Nil arguments select the timestamp scheme and the
// system clock.
func New(scheme Scheme, clock Clock) *Tagger {
	if scheme == nil {
		scheme = TimestampScheme(DefaultLabel)
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Tagger{scheme: scheme, clock: clock}
}

// Tag returns raw carrying a qr_ref reference built from counter, together
// with the counter value the caller must use next time. Empty input is a
// no-op and leaves the counter untouched.
func (t *Tagger) Tag(raw string, counter int) (string, int) {
	if raw == "" {
		return raw, counter
	}

	ref := t.scheme(counter, t.clock.Now())
	next := counter + 1

	u, ok := parseAbsolute(raw)
	if !ok {
		return raw + "?" + ReferenceParam + "=" + ref, next
	}

	u.RawQuery = setParam(u.RawQuery, ReferenceParam, ref)
	u.ForceQuery = false
	return u.String(), next
}

// Tag tags raw with the default timestamp scheme.
func Tag(raw string, counter int, clock Clock) (string, int) {
	return New(nil, clock).Tag(raw, counter)
}

// WellFormed reports whether Tag treats raw as a URL. Anything else is tagged
// by appending "?qr_ref=<ref>" verbatim.
func WellFormed(raw string) bool {
	_, ok := parseAbsolute(raw)
	return ok
}

// parseAbsolute accepts only input a browser would take as a complete URL:
// a scheme plus either an authority or an opaque part.
func parseAbsolute(raw string) (*url.URL, bool) {
	if strings.ContainsAny(raw, " \t\r\n") {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return nil, false
	}
	if u.Host == "" && u.Opaque == "" {
		return nil, false
	}
	return u, true
}

// setParam replaces every occurrence of key in rawQuery with a single pair
// holding value. The new pair sits where the first old one was; all other
// pairs keep their order and encoding. Empty segments ("a=1&&b=2") are
// dropped, as a browser's URLSearchParams does when it reserializes.
func setParam(rawQuery, key, value string) string {
	pair := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if rawQuery == "" {
		return pair
	}

	parts := strings.Split(rawQuery, "&")
	out := make([]string, 0, len(parts)+1)
	placed := false
	for _, p := range parts {
		if p == "" {
			continue
		}
		name := p
		if i := strings.IndexByte(p, '='); i >= 0 {
			name = p[:i]
		}
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if name != key {
			out = append(out, p)
			continue
		}
		if !placed {
			out = append(out, pair)
			placed = true
		}
	}
	if !placed {
		out = append(out, pair)
	}
	return strings.Join(out, "&")
}
