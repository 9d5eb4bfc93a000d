package windowing

import (
	"errors"
	"testing"

	"volumeview/internal/models"
)

// TestValueMonotonic sweeps raw values across and beyond several windows
// and checks the output never decreases.
func TestValueMonotonic(t *testing.T) {
	windows := []models.Window{
		{Width: 1, Level: 0},
		{Width: 400, Level: 40},
		{Width: 2000, Level: -1000},
		{Width: 3, Level: 7},
	}

	for _, w := range windows {
		prev := uint8(0)
		for v := w.Level - w.Width*2; v <= w.Level+w.Width*2; v += w.Width / 50 {
			got, err := Value(v, w.Width, w.Level)
			if err != nil {
				t.Fatalf("Unexpected error for window %+v: %v", w, err)
			}
			if got < prev {
				t.Errorf("Window %+v not monotonic at %f: %d after %d", w, v, got, prev)
			}
			prev = got
		}
	}
}

func TestValueClampsAndMidpoint(t *testing.T) {
	width, level := 400.0, 40.0

	cases := []struct {
		raw  float64
		want uint8
	}{
		{-10000, 0},
		{level - width/2, 0},
		{level, 127},
		{level + width/2, 255},
		{10000, 255},
	}
	for _, c := range cases {
		got, err := Value(c.raw, width, level)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != c.want {
			t.Errorf("Expected %d for raw %f, got %d", c.want, c.raw, got)
		}
	}

	// Odd widths still land on the midpoint
	got, err := Value(7, 3, 7)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != 127 {
		t.Errorf("Expected midpoint 127, got %d", got)
	}
}

func TestInvalidWindow(t *testing.T) {
	for _, width := range []float64{0, -1, -400} {
		if _, err := Value(1, width, 0); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("Expected ErrInvalidWindow for width %f, got %v", width, err)
		}
		g := models.NewGrid(2, 2)
		if _, err := Apply(g, width, 0); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("Expected ErrInvalidWindow from Apply for width %f, got %v", width, err)
		}
	}
}

// TestApplyMatchesValue ensures the grid path and the scalar path agree
// for every element, whatever the grid shape.
func TestApplyMatchesValue(t *testing.T) {
	g := models.NewGrid(3, 5)
	for i := range g.Data {
		g.Data[i] = float64(i*37%200) - 50
	}

	img, err := Apply(g, 120, 10)
	if err != nil {
		t.Fatalf("Failed to apply window: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 5 || bounds.Dy() != 3 {
		t.Fatalf("Expected 5x3 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			want, _ := Value(g.At(x, y), 120, 10)
			if got := img.GrayAt(x, y).Y; got != want {
				t.Errorf("Mismatch at (%d,%d): expected %d, got %d", x, y, want, got)
			}
		}
	}
}
