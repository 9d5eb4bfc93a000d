// Package viewstate holds the user-adjustable view of a volume: which
// axial and secondary sections are shown and with which window.
package viewstate

import (
	"fmt"

	"volumeview/internal/models"
)

// MinWindowWidth is the narrowest window a user can select
const MinWindowWidth = 1

// ViewState is the complete view of one document. Indices are kept in
// range for the volume they were last clamped against.
type ViewState struct {
	AxialIndex     int
	SecondaryAxis  models.Axis
	SecondaryIndex int
	WindowWidth    int
	WindowLevel    int
}

// New returns a view showing the given secondary axis with the given
// window. An axis other than Sagittal or Coronal falls back to Sagittal.
func New(axis models.Axis, width, level int) ViewState {
	if axis != models.Sagittal && axis != models.Coronal {
		axis = models.Sagittal
	}
	if width < MinWindowWidth {
		width = MinWindowWidth
	}
	return ViewState{SecondaryAxis: axis, WindowWidth: width, WindowLevel: level}
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func extent(vol *models.Volume, axis models.Axis) int {
	if vol == nil {
		return 0
	}
	return vol.Extent(axis)
}

// SetAxialIndex selects the axial section, clamped to [0, depth-1]
func (s *ViewState) SetAxialIndex(vol *models.Volume, i int) {
	s.AxialIndex = clamp(i, extent(vol, models.Axial))
}

// SetSecondaryIndex selects the secondary section, clamped to the range
// of the current secondary axis
func (s *ViewState) SetSecondaryIndex(vol *models.Volume, i int) {
	s.SecondaryIndex = clamp(i, extent(vol, s.SecondaryAxis))
}

// SetSecondaryAxis switches between sagittal and coronal, keeping the
// secondary index where it is still valid
func (s *ViewState) SetSecondaryAxis(vol *models.Volume, axis models.Axis) error {
	if axis != models.Sagittal && axis != models.Coronal {
		return fmt.Errorf("secondary axis must be Sagittal or Coronal, got %v", axis)
	}
	s.SecondaryAxis = axis
	s.SecondaryIndex = clamp(s.SecondaryIndex, extent(vol, axis))
	return nil
}

// SetWindowWidth sets the window width, never below MinWindowWidth
func (s *ViewState) SetWindowWidth(width int) {
	if width < MinWindowWidth {
		width = MinWindowWidth
	}
	s.WindowWidth = width
}

// SetWindowLevel sets the window level
func (s *ViewState) SetWindowLevel(level int) {
	s.WindowLevel = level
}

// Load adapts the view to a newly loaded volume: the axial index moves
// to the middle of the stack, the secondary index is re-clamped and the
// volume's default window is adopted. The secondary axis is kept.
func (s *ViewState) Load(vol *models.Volume) {
	s.AxialIndex = extent(vol, models.Axial) / 2
	s.SecondaryIndex = clamp(s.SecondaryIndex, extent(vol, s.SecondaryAxis))
	if vol != nil {
		s.SetWindowWidth(vol.WindowWidth)
		s.WindowLevel = vol.WindowLevel
	}
}

// Clamp pulls every index back into range for vol and reports whether
// anything changed
func (s *ViewState) Clamp(vol *models.Volume) bool {
	before := *s
	s.AxialIndex = clamp(s.AxialIndex, extent(vol, models.Axial))
	s.SecondaryIndex = clamp(s.SecondaryIndex, extent(vol, s.SecondaryAxis))
	if s.WindowWidth < MinWindowWidth {
		s.WindowWidth = MinWindowWidth
	}
	return before != *s
}

// Labels are the strings shown next to the view controls
type Labels struct {
	Axial       string
	Secondary   string
	WindowWidth string
	WindowLevel string
}

// Labels formats the view for display as "index / max" pairs
func (s ViewState) Labels(vol *models.Volume) Labels {
	return Labels{
		Axial:       fmt.Sprintf("%d / %d", s.AxialIndex, extent(vol, models.Axial)-1),
		Secondary:   fmt.Sprintf("%d / %d", s.SecondaryIndex, extent(vol, s.SecondaryAxis)-1),
		WindowWidth: fmt.Sprintf("%d", s.WindowWidth),
		WindowLevel: fmt.Sprintf("%d", s.WindowLevel),
	}
}
