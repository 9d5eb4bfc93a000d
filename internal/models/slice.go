package models

import (
	"fmt"
	"math"
)

// Metadata keys passed through to the display layer. The core never
// interprets these values.
const (
	MetaPatientName      = "PatientName"
	MetaPatientID        = "PatientID"
	MetaPatientSex       = "PatientSex"
	MetaPatientBirthDate = "PatientBirthDate"
	MetaStudyDate        = "StudyDate"
	MetaBodyPart         = "BodyPartExamined"
	MetaModality         = "Modality"
	MetaManufacturer     = "Manufacturer"
	MetaSliceThickness   = "SliceThickness"
	MetaSpacing          = "SpacingBetweenSlices"
)

// Metadata is the read-only bag of descriptive fields attached to a slice
type Metadata map[string]string

// Clone returns an independent copy of the bag
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Grid is a 2D intensity plane stored in row-major order
type Grid struct {
	// Rows is the number of rows (height) of the plane
	Rows int

	// Cols is the number of columns (width) of the plane
	Cols int

	// Data holds Rows*Cols intensities, index y*Cols + x
	Data []float64
}

// NewGrid allocates a zeroed grid of the given size
func NewGrid(rows, cols int) Grid {
	return Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the intensity at column x, row y
func (g Grid) At(x, y int) float64 {
	return g.Data[y*g.Cols+x]
}

// Window is a width/level pair in raw intensity units
type Window struct {
	Width float64
	Level float64
}

// KeySource identifies which field produced a slice's spatial key
type KeySource int

const (
	KeyFromPosition KeySource = iota
	KeyFromLocation
	KeyFromIndex
)

func (k KeySource) String() string {
	switch k {
	case KeyFromPosition:
		return "position"
	case KeyFromLocation:
		return "location"
	default:
		return "index"
	}
}

// SliceRecord represents a single decoded slice with its spatial and
// display metadata. Optional fields are nil when the source did not
// carry them.
type SliceRecord struct {
	// Planes holds the decoded intensity planes. Almost always a single
	// plane; multi-frame sources contribute one plane per frame.
	Planes []Grid

	// Source names where the record came from (usually a file path)
	Source string

	// Index is the position of the record in the ingestion order
	Index int

	// Position is the 3D position of the first voxel; Position[2] is the
	// through-plane component
	Position *[3]float64

	// Location is a scalar slice location
	Location *float64

	// Window holds acquisition window defaults
	Window *Window

	// PixelSpacing is the in-plane spacing (row, column) in mm
	PixelSpacing *[2]float64

	// Thickness is the physical thickness of the slice in mm
	Thickness *float64

	// Spacing is the distance between adjacent slices in mm
	Spacing *float64

	// Metadata is passed through unmodified to the display layer
	Metadata Metadata
}

// NewSliceRecord builds a single-plane record from row-major pixel data
func NewSliceRecord(rows, cols int, pixels []float64) (*SliceRecord, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid slice dimensions %dx%d", cols, rows)
	}
	if len(pixels) != rows*cols {
		return nil, fmt.Errorf("pixel count %d does not match dimensions %dx%d", len(pixels), cols, rows)
	}
	return &SliceRecord{
		Planes: []Grid{{Rows: rows, Cols: cols, Data: pixels}},
	}, nil
}

// SpatialKey returns the value used to order this record among its
// series together with the field it was taken from. A NaN or infinite
// position or location is treated as absent.
func (s *SliceRecord) SpatialKey() (float64, KeySource) {
	switch {
	case s.Position != nil && finite(s.Position[2]):
		return s.Position[2], KeyFromPosition
	case s.Location != nil && finite(*s.Location):
		return *s.Location, KeyFromLocation
	default:
		return float64(s.Index), KeyFromIndex
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Float64 returns a pointer to v, for filling optional fields
func Float64(v float64) *float64 {
	return &v
}
