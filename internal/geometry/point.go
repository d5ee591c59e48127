// Package geometry implements the planar and volumetric calculations used by
// geocalc: polygon area, height resolution, frustum volume, weight and grid
// spacing.
//
// All functions are pure. Validation of inputs that the caller owns (minimum
// point counts, positive density) happens in the core package; this package
// only enforces the invariants it needs to produce a meaningful number.
package geometry

import "github.com/samber/lo"

// Point2D is a planar coordinate in meters.
type Point2D struct {
	X float64
	Y float64
}

// Elevation is an optional z value. Valid is false when the source row had
// no parseable z; an absent elevation is never treated as zero.
type Elevation struct {
	Value float64
	Valid bool
}

// Some returns a present elevation.
func Some(v float64) Elevation {
	return Elevation{Value: v, Valid: true}
}

// None returns an absent elevation.
func None() Elevation {
	return Elevation{}
}

// Point3D is a parsed record with an optional elevation.
type Point3D struct {
	X float64
	Y float64
	Z Elevation
}

// XY projects the point onto the plane.
func (p Point3D) XY() Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

// CoordinateSet is an ordered list of points in source row order.
type CoordinateSet []Point3D

// Len returns the number of points.
func (cs CoordinateSet) Len() int {
	return len(cs)
}

// Points2D projects every point onto the plane, preserving order.
func (cs CoordinateSet) Points2D() []Point2D {
	return lo.Map(cs, func(p Point3D, _ int) Point2D {
		return p.XY()
	})
}

// HasElevation reports whether at least one point carries a z value.
func (cs CoordinateSet) HasElevation() bool {
	return lo.SomeBy(cs, func(p Point3D) bool {
		return p.Z.Valid
	})
}

// MeanElevation averages the present z values. The second return value is
// false when no point carries elevation.
func (cs CoordinateSet) MeanElevation() (float64, bool) {
	present := lo.FilterMap(cs, func(p Point3D, _ int) (float64, bool) {
		return p.Z.Value, p.Z.Valid
	})
	if len(present) == 0 {
		return 0, false
	}
	return lo.Sum(present) / float64(len(present)), true
}
