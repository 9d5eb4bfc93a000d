package models

import (
	"math"
	"testing"
)

// TestSpatialKeyPriority verifies position beats location beats index
func TestSpatialKeyPriority(t *testing.T) {
	rec, err := NewSliceRecord(2, 2, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Failed to create record: %v", err)
	}
	rec.Index = 7

	key, src := rec.SpatialKey()
	if key != 7 || src != KeyFromIndex {
		t.Errorf("Expected index key 7, got %v from %v", key, src)
	}

	rec.Location = Float64(-3.5)
	key, src = rec.SpatialKey()
	if key != -3.5 || src != KeyFromLocation {
		t.Errorf("Expected location key -3.5, got %v from %v", key, src)
	}

	rec.Position = &[3]float64{10, 20, 42}
	key, src = rec.SpatialKey()
	if key != 42 || src != KeyFromPosition {
		t.Errorf("Expected position key 42, got %v from %v", key, src)
	}
}

func TestSpatialKeySkipsNonFinite(t *testing.T) {
	rec, err := NewSliceRecord(1, 1, []float64{0})
	if err != nil {
		t.Fatalf("Failed to create record: %v", err)
	}
	rec.Index = 4
	rec.Position = &[3]float64{0, 0, math.Inf(1)}
	rec.Location = Float64(2.5)

	if key, src := rec.SpatialKey(); key != 2.5 || src != KeyFromLocation {
		t.Errorf("Expected location key 2.5, got %v from %v", key, src)
	}

	rec.Location = Float64(math.NaN())
	if key, src := rec.SpatialKey(); key != 4 || src != KeyFromIndex {
		t.Errorf("Expected index key 4, got %v from %v", key, src)
	}
}

func TestNewSliceRecordRejectsBadSize(t *testing.T) {
	if _, err := NewSliceRecord(2, 2, []float64{1, 2, 3}); err == nil {
		t.Error("Expected error for short pixel buffer, got nil")
	}
	if _, err := NewSliceRecord(0, 2, nil); err == nil {
		t.Error("Expected error for zero rows, got nil")
	}
}

// TestDefaultWindow covers the 0..1000 range with mean 500
func TestDefaultWindow(t *testing.T) {
	data := make([]float64, 1001)
	for i := range data {
		data[i] = float64(i)
	}

	width, level := DefaultWindow(data)
	if width != 1000 {
		t.Errorf("Expected width 1000, got %d", width)
	}
	if level != 500 {
		t.Errorf("Expected level 500, got %d", level)
	}

	width, level = DefaultWindow([]float64{5, 5, 5})
	if width != 1 || level != 5 {
		t.Errorf("Expected flat window (1, 5), got (%d, %d)", width, level)
	}
}

func TestVolumeExtentAndPlane(t *testing.T) {
	vol := &Volume{Width: 3, Height: 2, Depth: 4, Data: make([]float64, 24)}
	for i := range vol.Data {
		vol.Data[i] = float64(i)
	}

	if vol.Extent(Axial) != 4 || vol.Extent(Sagittal) != 3 || vol.Extent(Coronal) != 2 {
		t.Errorf("Unexpected extents: axial %d sagittal %d coronal %d",
			vol.Extent(Axial), vol.Extent(Sagittal), vol.Extent(Coronal))
	}

	plane := vol.Plane(2)
	if plane.Rows != 2 || plane.Cols != 3 {
		t.Fatalf("Expected plane 3x2, got %dx%d", plane.Cols, plane.Rows)
	}
	if plane.At(1, 1) != vol.At(1, 1, 2) {
		t.Errorf("Expected %f, got %f", vol.At(1, 1, 2), plane.At(1, 1))
	}
}

func TestParseAxis(t *testing.T) {
	for name, want := range map[string]Axis{"Sagittal": Sagittal, "coronal": Coronal, " axial ": Axial} {
		got, err := ParseAxis(name)
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", name, err)
		}
		if got != want {
			t.Errorf("Expected %v for %q, got %v", want, name, got)
		}
	}
	if _, err := ParseAxis("oblique"); err == nil {
		t.Error("Expected error for oblique axis, got nil")
	}
}
