// Package measure converts the imperial measurement strings stored in node
// attributes ("12ft", "5ft6in", "-3in") into meters and display pixels.
package measure

import (
	"math"
	"regexp"
	"strconv"
)

// FeetToMeters is the exact length of one international foot.
const FeetToMeters = 0.3048

// MetersToPixels is the floor-plan display scale.
const MetersToPixels = 100

// Forms are tried in this order and the first full match wins. The
// compound form carries no sign.
var (
	feetRE     = regexp.MustCompile(`^(-?\d+)ft$`)
	compoundRE = regexp.MustCompile(`^(\d+)ft(\d+)in$`)
	inchesRE   = regexp.MustCompile(`^(-?\d+)in$`)
)

// ParseSize returns text in meters. Anything that is not one of the three
// accepted forms yields 0; malformed or absent sizes are not errors.
func ParseSize(text string) float64 {
	return finite(parseSize(text))
}

func parseSize(text string) float64 {
	if m := feetRE.FindStringSubmatch(text); m != nil {
		return atof(m[1]) * FeetToMeters
	}
	if m := compoundRE.FindStringSubmatch(text); m != nil {
		return (atof(m[1]) + atof(m[2])/12) * FeetToMeters
	}
	if m := inchesRE.FindStringSubmatch(text); m != nil {
		return atof(m[1]) / 12 * FeetToMeters
	}
	return 0
}

// finite maps values that overflowed a float64 to 0, like any other size
// that cannot be displayed.
func finite(m float64) float64 {
	if math.IsInf(m, 0) || math.IsNaN(m) {
		return 0
	}
	return m
}

// atof parses a run of digits matched above. Digit runs too long for a
// float64 saturate to ±Inf; ParseSize turns those into 0.
func atof(digits string) float64 {
	f, _ := strconv.ParseFloat(digits, 64)
	return f
}

// DisplaySize returns the pixel width for text, less one pixel for the
// element border.
func DisplaySize(text string) float64 {
	return ParseSize(text)*MetersToPixels - 1
}

// DisplayOffset returns the pixel position for text shifted by offset.
func DisplayOffset(text string, offset float64) float64 {
	return ParseSize(text)*MetersToPixels + offset
}
