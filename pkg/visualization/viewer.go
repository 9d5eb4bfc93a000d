// Package visualization extracts orthogonal sections from an assembled
// volume and turns them into windowed display images.
package visualization

import (
	"fmt"
	"image"
	"image/png"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"volumeview/internal/models"
	"volumeview/pkg/viewstate"
	"volumeview/pkg/windowing"
)

type sectionKey struct {
	axis     models.Axis
	position int
}

// Reslicer extracts sections from one volume. Sections are cached by
// axis and position; the volume is never modified so cached sections
// stay valid for the life of the Reslicer.
type Reslicer struct {
	volume *models.Volume
	cache  *lru.Cache[sectionKey, models.Grid]
}

// NewReslicer creates a reslicer for vol keeping up to cacheSize raw
// sections. A cacheSize of zero disables caching.
func NewReslicer(vol *models.Volume, cacheSize int) (*Reslicer, error) {
	if vol == nil || vol.Depth < 1 || vol.Width < 1 || vol.Height < 1 {
		return nil, fmt.Errorf("volume must have at least one voxel")
	}
	r := &Reslicer{volume: vol}
	if cacheSize > 0 {
		cache, err := lru.New[sectionKey, models.Grid](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create section cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Volume returns the volume being resliced
func (r *Reslicer) Volume() *models.Volume {
	return r.volume
}

// ClampPosition pulls position into [0, extent-1] for the axis
func (r *Reslicer) ClampPosition(axis models.Axis, position int) int {
	n := r.volume.Extent(axis)
	if position >= n {
		position = n - 1
	}
	if position < 0 {
		position = 0
	}
	return position
}

// ExtractSlice extracts a 2D section along the given axis. Positions out
// of range are clamped. The returned grid is shared and must not be
// modified.
//
//   - Axial: data[position, :, :], height x width
//   - Sagittal: data[:, :, position], depth x height
//   - Coronal: data[:, position, :], depth x width, rotated 180 degrees
func (r *Reslicer) ExtractSlice(axis models.Axis, position int) models.Grid {
	key := sectionKey{axis: axis, position: r.ClampPosition(axis, position)}
	if r.cache != nil {
		if g, ok := r.cache.Get(key); ok {
			return g
		}
	}

	var g models.Grid
	switch axis {
	case models.Sagittal:
		g = r.sagittal(key.position)
	case models.Coronal:
		g = flip(r.coronal(key.position))
	default:
		g = r.volume.Plane(key.position)
	}

	if r.cache != nil {
		r.cache.Add(key, g)
	}
	return g
}

// sagittal extracts the YZ plane at column x
func (r *Reslicer) sagittal(x int) models.Grid {
	v := r.volume
	g := models.NewGrid(v.Depth, v.Height)
	for z := 0; z < v.Depth; z++ {
		for y := 0; y < v.Height; y++ {
			g.Data[z*v.Height+y] = v.Data[v.Index(x, y, z)]
		}
	}
	return g
}

// coronal extracts the XZ plane at row y, unflipped
func (r *Reslicer) coronal(y int) models.Grid {
	v := r.volume
	g := models.NewGrid(v.Depth, v.Width)
	for z := 0; z < v.Depth; z++ {
		copy(g.Data[z*v.Width:(z+1)*v.Width], v.Data[v.Index(0, y, z):v.Index(0, y, z)+v.Width])
	}
	return g
}

// flip mirrors a grid vertically and horizontally in place
func flip(g models.Grid) models.Grid {
	for i, j := 0, len(g.Data)-1; i < j; i, j = i+1, j-1 {
		g.Data[i], g.Data[j] = g.Data[j], g.Data[i]
	}
	return g
}

// Frame is everything the display layer needs after one update
type Frame struct {
	// Primary is the windowed axial section
	Primary *image.Gray

	// Secondary is the windowed sagittal or coronal section
	Secondary *image.Gray

	// Crosshair marks the secondary section on the primary
	Crosshair Overlay

	// State is the view the frame was rendered from, after clamping
	State viewstate.ViewState

	// Labels are the control labels for State
	Labels viewstate.Labels
}

// Render produces both display images for the view. Indices outside the
// volume are clamped and written back to state. Rendering the same state
// twice yields identical images.
func (r *Reslicer) Render(state *viewstate.ViewState) (Frame, error) {
	state.Clamp(r.volume)

	width := float64(state.WindowWidth)
	level := float64(state.WindowLevel)

	primary, err := windowing.Apply(r.ExtractSlice(models.Axial, state.AxialIndex), width, level)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to window axial section: %w", err)
	}
	secondary, err := windowing.Apply(r.ExtractSlice(state.SecondaryAxis, state.SecondaryIndex), width, level)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to window %s section: %w", state.SecondaryAxis, err)
	}

	return Frame{
		Primary:   primary,
		Secondary: secondary,
		Crosshair: Crosshair(state.SecondaryAxis, state.SecondaryIndex),
		State:     *state,
		Labels:    state.Labels(r.volume),
	}, nil
}

// SaveSlice saves a display image as PNG
func SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
