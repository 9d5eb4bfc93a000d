// Package windowing maps raw intensities onto an 8-bit display range
// using a width/level window.
package windowing

import (
	"errors"
	"fmt"
	"image"
	"math"

	"volumeview/internal/models"
)

// ErrInvalidWindow is returned when the window width is not positive.
// Callers are expected to guarantee width > 0.
var ErrInvalidWindow = errors.New("invalid window")

// Bounds returns the raw intensity interval covered by the window
func Bounds(width, level float64) (lo, hi float64) {
	return level - width/2, level + width/2
}

// Value maps a single raw intensity to its display value
func Value(v, width, level float64) (uint8, error) {
	if err := check(width, level); err != nil {
		return 0, err
	}
	lo, hi := Bounds(width, level)
	return scale(v, lo, hi), nil
}

// Apply windows a whole grid into an 8-bit grayscale image with the
// same number of rows and columns.
func Apply(g models.Grid, width, level float64) (*image.Gray, error) {
	if err := check(width, level); err != nil {
		return nil, err
	}
	lo, hi := Bounds(width, level)

	img := image.NewGray(image.Rect(0, 0, g.Cols, g.Rows))
	for y := 0; y < g.Rows; y++ {
		row := g.Data[y*g.Cols : (y+1)*g.Cols]
		pix := img.Pix[y*img.Stride : y*img.Stride+g.Cols]
		for x, v := range row {
			pix[x] = scale(v, lo, hi)
		}
	}
	return img, nil
}

func check(width, level float64) error {
	if math.IsNaN(width) || math.IsInf(width, 0) || width <= 0 {
		return fmt.Errorf("%w: width %v must be positive", ErrInvalidWindow, width)
	}
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return fmt.Errorf("%w: level %v is not finite", ErrInvalidWindow, level)
	}
	return nil
}

// scale clamps v into [lo, hi] and rescales to 0..255, truncating
func scale(v, lo, hi float64) uint8 {
	if v <= lo || math.IsNaN(v) {
		return 0
	}
	if v >= hi {
		return 255
	}
	return uint8((v - lo) / (hi - lo) * 255)
}
