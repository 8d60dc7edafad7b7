package form

// Symbol edge lengths in pixels, selected by viewport width.
const (
	SizeSmall  = 200
	SizeMedium = 220
	SizeLarge  = 256

	BreakpointSmall  = 380
	BreakpointMedium = 768

	// DefaultSize applies until a viewport width is reported.
	DefaultSize = SizeLarge
)

// SizeForViewport maps a viewport width to a symbol size.
func SizeForViewport(width int) int {
	switch {
	case width < BreakpointSmall:
		return SizeSmall
	case width < BreakpointMedium:
		return SizeMedium
	default:
		return SizeLarge
	}
}
