package models

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Axis is one of the three orthogonal anatomical planes
type Axis int

const (
	Axial Axis = iota
	Sagittal
	Coronal
)

func (a Axis) String() string {
	switch a {
	case Axial:
		return "Axial"
	case Sagittal:
		return "Sagittal"
	case Coronal:
		return "Coronal"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis parses an axis name, case-insensitively
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "axial", "z":
		return Axial, nil
	case "sagittal", "x":
		return Sagittal, nil
	case "coronal", "y":
		return Coronal, nil
	}
	return Axial, fmt.Errorf("invalid axis: %q (must be axial, sagittal or coronal)", s)
}

// Volume represents a 3D intensity grid assembled from ordered slices.
// Data is never modified after construction.
type Volume struct {
	// Data is the 3D volume data as a 1D array in row-major order,
	// index z*Width*Height + y*Width + x
	Data []float64

	// Width is the width of the volume in voxels
	Width int

	// Height is the height of the volume in voxels
	Height int

	// Depth is the depth of the volume in voxels
	Depth int

	// WindowWidth and WindowLevel are the default display window
	WindowWidth int
	WindowLevel int

	// Metadata of the spatially-first slice
	Metadata Metadata

	// VoxelSize is the physical size of each voxel in mm, zero when unknown
	VoxelSize struct {
		X, Y, Z float64
	}
}

// Index returns the flat offset of voxel (x, y, z)
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// At returns the intensity of voxel (x, y, z)
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.Index(x, y, z)]
}

// Extent returns the number of positions along an axis
func (v *Volume) Extent(axis Axis) int {
	switch axis {
	case Sagittal:
		return v.Width
	case Coronal:
		return v.Height
	default:
		return v.Depth
	}
}

// Plane returns the axial plane at depth z. The returned grid shares
// storage with the volume and must not be modified.
func (v *Volume) Plane(z int) Grid {
	n := v.Width * v.Height
	return Grid{Rows: v.Height, Cols: v.Width, Data: v.Data[z*n : (z+1)*n : (z+1)*n]}
}

// SizeBytes returns the in-memory size of the intensity data
func (v *Volume) SizeBytes() uint64 {
	return uint64(len(v.Data)) * 8
}

// DefaultWindow derives a display window from the data range:
// width = max - min, level = mean, both truncated to integers.
// A flat volume yields width 1 so the window stays usable.
func DefaultWindow(data []float64) (width, level int) {
	if len(data) == 0 {
		return 1, 0
	}
	width = int(floats.Max(data) - floats.Min(data))
	level = int(stat.Mean(data, nil))
	if width < 1 {
		width = 1
	}
	return width, level
}
