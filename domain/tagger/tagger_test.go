package tagger

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() Clock {
	return ClockFunc(func() time.Time { return fixedTime })
}

func refOf(t *testing.T, tagged string) string {
	t.Helper()
	u, err := url.Parse(tagged)
	require.NoError(t, err)
	return u.Query().Get(ReferenceParam)
}

func TestCounterScheme(t *testing.T) {
	assert.Equal(t, "qr_1", CounterScheme()(1, fixedTime))
	assert.Equal(t, "qr_42", CounterScheme()(42, time.Time{}))
}

func TestTimestampScheme(t *testing.T) {
	ref := TimestampScheme("promo")(3, fixedTime)
	assert.Equal(t, "promo_1714564800000_3", ref)

	// empty label falls back to the default
	assert.True(t, strings.HasPrefix(TimestampScheme("")(1, fixedTime), DefaultLabel+"_"))
}

func TestTag_WellFormedURLPreservesQuery(t *testing.T) {
	tagged, next := Tag("https://example.com/page?x=1", 1, fixedClock())

	assert.Equal(t, 2, next)
	assert.Equal(t, "https://example.com/page?x=1&qr_ref=qr_1714564800000_1", tagged)

	u, err := url.Parse(tagged)
	require.NoError(t, err)
	assert.Equal(t, "1", u.Query().Get("x"))
	assert.Equal(t, "/page", u.Path)
}

func TestTag_PreservesFragmentAndParamOrder(t *testing.T) {
	tg := New(CounterScheme(), fixedClock())

	tagged, _ := tg.Tag("https://example.com/a/b?z=9&a=1#section", 7)

	assert.Equal(t, "https://example.com/a/b?z=9&a=1&qr_ref=qr_7#section", tagged)
}

func TestTag_OverwritesExistingReference(t *testing.T) {
	tg := New(CounterScheme(), fixedClock())

	tagged, next := tg.Tag("https://example.com/?a=1&qr_ref=old&b=2&qr_ref=older", 4)

	assert.Equal(t, 5, next)
	assert.Equal(t, "https://example.com/?a=1&qr_ref=qr_4&b=2", tagged)
}

func TestTag_MalformedInputFallsBackToConcatenation(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain text", "not a url"},
		{"bare host", "example.com"},
		{"missing host", "https://"},
		{"relative path", "/just/a/path"},
	}

	tg := New(CounterScheme(), fixedClock())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tagged, next := tg.Tag(tt.input, 5)
			assert.Equal(t, tt.input+"?qr_ref=qr_5", tagged)
			assert.Equal(t, 6, next)
		})
	}
}

func TestTag_EmptyInputIsNoop(t *testing.T) {
	tagged, next := Tag("", 9, fixedClock())

	assert.Equal(t, "", tagged)
	assert.Equal(t, 9, next)
}

func TestTag_ConsecutiveCountersGiveDistinctReferences(t *testing.T) {
	const input = "https://example.com/page?x=1"

	first, next := Tag(input, 1, fixedClock())
	second, last := Tag(input, next, fixedClock())

	assert.Equal(t, 3, last)
	assert.NotEqual(t, refOf(t, first), refOf(t, second))

	// the two results differ only in the reference value
	strip := func(s string) string { return strings.Replace(s, refOf(t, s), "", 1) }
	assert.Equal(t, strip(first), strip(second))
}

func TestTag_NGenerationsArePairwiseDistinct(t *testing.T) {
	tg := New(nil, SystemClock())
	counter := 1
	seen := make(map[string]bool)

	const n = 50
	for i := 0; i < n; i++ {
		var tagged string
		tagged, counter = tg.Tag("https://example.com", counter)
		assert.False(t, seen[tagged], "duplicate tagged url %s", tagged)
		seen[tagged] = true
	}

	assert.Equal(t, 1+n, counter)
	assert.Len(t, seen, n)
}

func TestTag_OpaqueURL(t *testing.T) {
	tg := New(CounterScheme(), fixedClock())

	tagged, _ := tg.Tag("mailto:someone@example.com", 2)

	assert.Equal(t, "mailto:someone@example.com?qr_ref=qr_2", tagged)
}

func TestSetParam(t *testing.T) {
	assert.Equal(t, "qr_ref=v", setParam("", "qr_ref", "v"))
	assert.Equal(t, "a=1&qr_ref=v", setParam("a=1&&", "qr_ref", "v"))
	assert.Equal(t, "a=1&b=2&qr_ref=v", setParam("a=1&&b=2", "qr_ref", "v"))
	assert.Equal(t, "a=1&qr_ref=v&b=2", setParam("&a=1&qr_ref=x&&b=2&", "qr_ref", "v"))
	assert.Equal(t, "qr_ref=v&a=1", setParam("qr%5Fref=x&a=1", "qr_ref", "v"))
}
