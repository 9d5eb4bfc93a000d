package viewstate

import (
	"testing"

	"volumeview/internal/models"
)

// createTestVolume returns an empty volume with the given dimensions
func createTestVolume(width, height, depth int) *models.Volume {
	return &models.Volume{
		Width:       width,
		Height:      height,
		Depth:       depth,
		Data:        make([]float64, width*height*depth),
		WindowWidth: 350,
		WindowLevel: 50,
	}
}

func TestSecondaryIndexClamped(t *testing.T) {
	vol := createTestVolume(8, 5, 3)
	s := New(models.Sagittal, 400, 40)

	for _, i := range []int{-5, 0, 7, 8, 100} {
		s.SetSecondaryIndex(vol, i)
		if s.SecondaryIndex < 0 || s.SecondaryIndex > 7 {
			t.Errorf("Sagittal index %d stored as %d, outside [0,7]", i, s.SecondaryIndex)
		}
	}
	s.SetSecondaryIndex(vol, 100)
	if s.SecondaryIndex != 7 {
		t.Errorf("Expected clamp to 7, got %d", s.SecondaryIndex)
	}

	if err := s.SetSecondaryAxis(vol, models.Coronal); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.SecondaryIndex != 4 {
		t.Errorf("Expected re-clamp to 4 after switching to coronal, got %d", s.SecondaryIndex)
	}

	s.SetSecondaryIndex(vol, 2)
	if err := s.SetSecondaryAxis(vol, models.Sagittal); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.SecondaryIndex != 2 {
		t.Errorf("Expected in-range index 2 to be kept, got %d", s.SecondaryIndex)
	}
}

func TestSetSecondaryAxisRejectsAxial(t *testing.T) {
	s := New(models.Coronal, 400, 40)
	if err := s.SetSecondaryAxis(nil, models.Axial); err == nil {
		t.Error("Expected error for axial secondary axis, got nil")
	}
	if s.SecondaryAxis != models.Coronal {
		t.Errorf("Expected axis unchanged, got %v", s.SecondaryAxis)
	}
}

func TestAxialIndexClamped(t *testing.T) {
	vol := createTestVolume(4, 4, 6)
	s := New(models.Sagittal, 400, 40)

	s.SetAxialIndex(vol, 10)
	if s.AxialIndex != 5 {
		t.Errorf("Expected 5, got %d", s.AxialIndex)
	}
	s.SetAxialIndex(vol, -1)
	if s.AxialIndex != 0 {
		t.Errorf("Expected 0, got %d", s.AxialIndex)
	}
}

func TestWindowWidthNeverBelowMinimum(t *testing.T) {
	s := New(models.Sagittal, 0, 40)
	if s.WindowWidth != MinWindowWidth {
		t.Errorf("Expected minimum width from New, got %d", s.WindowWidth)
	}

	s.SetWindowWidth(-20)
	if s.WindowWidth != MinWindowWidth {
		t.Errorf("Expected minimum width, got %d", s.WindowWidth)
	}
	s.SetWindowWidth(1200)
	s.SetWindowLevel(-300)
	if s.WindowWidth != 1200 || s.WindowLevel != -300 {
		t.Errorf("Expected 1200/-300, got %d/%d", s.WindowWidth, s.WindowLevel)
	}
}

func TestLoadResetsView(t *testing.T) {
	s := New(models.Coronal, 400, 40)
	s.SetSecondaryIndex(createTestVolume(32, 32, 32), 30)

	vol := createTestVolume(16, 9, 7)
	s.Load(vol)

	if s.AxialIndex != 3 {
		t.Errorf("Expected axial index 3, got %d", s.AxialIndex)
	}
	if s.SecondaryAxis != models.Coronal {
		t.Errorf("Expected coronal axis kept, got %v", s.SecondaryAxis)
	}
	if s.SecondaryIndex != 8 {
		t.Errorf("Expected secondary index clamped to 8, got %d", s.SecondaryIndex)
	}
	if s.WindowWidth != 350 || s.WindowLevel != 50 {
		t.Errorf("Expected volume window 350/50, got %d/%d", s.WindowWidth, s.WindowLevel)
	}
}

func TestClampAfterShrink(t *testing.T) {
	s := ViewState{AxialIndex: 40, SecondaryAxis: models.Sagittal, SecondaryIndex: 40, WindowWidth: 100}
	vol := createTestVolume(10, 10, 10)

	if !s.Clamp(vol) {
		t.Error("Expected Clamp to report a change")
	}
	if s.AxialIndex != 9 || s.SecondaryIndex != 9 {
		t.Errorf("Expected indices clamped to 9, got %d/%d", s.AxialIndex, s.SecondaryIndex)
	}
	if s.Clamp(vol) {
		t.Error("Expected second Clamp to be a no-op")
	}
}

func TestLabels(t *testing.T) {
	vol := createTestVolume(12, 10, 5)
	s := New(models.Sagittal, 400, 40)
	s.Load(vol)
	s.SetSecondaryIndex(vol, 3)

	labels := s.Labels(vol)
	if labels.Axial != "2 / 4" {
		t.Errorf("Expected axial label \"2 / 4\", got %q", labels.Axial)
	}
	if labels.Secondary != "3 / 11" {
		t.Errorf("Expected secondary label \"3 / 11\", got %q", labels.Secondary)
	}
	if labels.WindowWidth != "350" || labels.WindowLevel != "50" {
		t.Errorf("Unexpected window labels %+v", labels)
	}
}
