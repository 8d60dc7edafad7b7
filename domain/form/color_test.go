package form

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPartialHex(t *testing.T) {
	for _, s := range []string{"#", "#1", "#12", "#1a2", "#1A2b", "#1a2b3c"} {
		assert.True(t, MatchPartialHex(s), s)
	}
	for _, s := range []string{"", "1a2b3c", "#1a2b3c4", "#xyz", "##12"} {
		assert.False(t, MatchPartialHex(s), s)
	}
}

func TestMatchHex(t *testing.T) {
	assert.True(t, MatchHex("#1a2b3c"))
	assert.True(t, MatchHex("#FFFFFF"))
	assert.False(t, MatchHex("#1a2"))
	assert.False(t, MatchHex("1a2b3c"))
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#1a2b3c")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}, c)

	c, err = ParseHex(DefaultColor)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{A: 0xff}, c)

	_, err = ParseHex("#12")
	assert.Error(t, err)
}

func TestSizeForViewport(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{0, SizeSmall},
		{379, SizeSmall},
		{380, SizeMedium},
		{767, SizeMedium},
		{768, SizeLarge},
		{1920, SizeLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeForViewport(tt.width), "width %d", tt.width)
	}
}
