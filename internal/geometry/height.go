package geometry

import (
	"fmt"
	"math"
)

// InsufficientDataError is returned when no usable height was supplied and
// the point sets do not carry enough elevation data to derive one.
type InsufficientDataError struct {
	BottomHasZ bool
	TopHasZ    bool
}

func (e *InsufficientDataError) Error() string {
	return "Enter a height or provide a Z column in both files"
}

// InvalidHeightError is returned when the resolved height is not positive.
type InvalidHeightError struct {
	Height  float64
	Derived bool
}

func (e *InvalidHeightError) Error() string {
	if e.Derived {
		return fmt.Sprintf("Computed height difference is %.2f m; the bottom and top elevations must differ", e.Height)
	}
	return "Enter a valid height"
}

// Height is a resolved prism height in meters.
type Height struct {
	Value   float64
	Derived bool // true when computed from elevation data
}

// Note returns the human-readable prefix reported with a derived height.
// User-supplied heights have no note.
func (h Height) Note() string {
	if !h.Derived {
		return ""
	}
	return fmt.Sprintf("Computed height difference: %.2f m. ", h.Value)
}

// ResolveHeight picks the height for a volume computation.
//
// A user height that is finite and positive is used as-is and elevation data
// is ignored. Otherwise both sets must carry elevation: the height is the
// absolute difference of their mean elevations, averaged over present values
// only.
func ResolveHeight(user Elevation, bottom, top CoordinateSet) (Height, error) {
	if user.Valid && isFinite(user.Value) && user.Value > 0 {
		return Height{Value: user.Value}, nil
	}

	bottomZ, topZ := bottom.HasElevation(), top.HasElevation()
	if !bottomZ || !topZ {
		return Height{}, &InsufficientDataError{BottomHasZ: bottomZ, TopHasZ: topZ}
	}

	bottomMean, _ := bottom.MeanElevation()
	topMean, _ := top.MeanElevation()

	h := math.Abs(bottomMean - topMean)
	if !(h > 0) || !isFinite(h) {
		return Height{}, &InvalidHeightError{Height: h, Derived: true}
	}

	return Height{Value: h, Derived: true}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
