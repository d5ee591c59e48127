package core

import (
	"fmt"

	"github.com/JonMunkholm/geocalc/internal/geometry"
)

// AreaResult is the outcome of an area computation.
type AreaResult struct {
	ID      string  `json:"id"`
	File    string  `json:"file"`
	Points  int     `json:"points"`
	Skipped int     `json:"skipped"`
	AreaSqM float64 `json:"area_sqm"`
	AreaKm2 float64 `json:"area_km2"`
}

// String returns the area status line.
func (r *AreaResult) String() string {
	return FormatArea(r.AreaSqM)
}

// VolumeResult is the outcome of a volume computation.
type VolumeResult struct {
	ID            string  `json:"id"`
	BottomArea    float64 `json:"bottom_area_sqm"`
	TopArea       float64 `json:"top_area_sqm"`
	Height        float64 `json:"height_m"`
	HeightDerived bool    `json:"height_derived"`
	Volume        float64 `json:"volume_m3"`
	Grid          float64 `json:"grid_m"`
}

// String returns the volume status line, with the derived-height note when
// the height came from elevation data.
func (r *VolumeResult) String() string {
	return FormatVolume(r.Volume, geometry.Height{Value: r.Height, Derived: r.HeightDerived})
}

// GridString returns the secondary grid status line.
func (r *VolumeResult) GridString() string {
	return FormatGrid(r.Grid)
}

// WeightResult is the outcome of a weight computation.
type WeightResult struct {
	ID      string  `json:"id"`
	Volume  float64 `json:"volume_m3"`
	Density float64 `json:"density_t_m3"`
	Weight  float64 `json:"weight_t"`
}

// String returns the weight status line.
func (r *WeightResult) String() string {
	return FormatWeight(r.Weight)
}

// GridResult is a stand-alone grid spacing estimate.
type GridResult struct {
	Volume float64 `json:"volume_m3"`
	Grid   float64 `json:"grid_m"`
}

// String returns the grid status line.
func (r *GridResult) String() string {
	return FormatGrid(r.Grid)
}

// FormatArea formats an area in m² with its km² equivalent.
func FormatArea(sqm float64) string {
	return fmt.Sprintf("Area: %.2f m² (%.4f km²)", sqm, sqm/geometry.SquareMetersPerKm2)
}

// FormatVolume formats a volume, prefixed with h.Note().
func FormatVolume(v float64, h geometry.Height) string {
	return fmt.Sprintf("%sVolume: %.2f m³", h.Note(), v)
}

// FormatGrid formats a grid spacing.
func FormatGrid(g float64) string {
	return fmt.Sprintf("Grid: %.2f m", g)
}

// FormatWeight formats a weight in tons.
func FormatWeight(w float64) string {
	return fmt.Sprintf("Weight: %.2f ton", w)
}
