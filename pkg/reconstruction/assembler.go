// Package reconstruction orders decoded slices by their spatial position
// and stacks them into a 3D volume.
package reconstruction

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"volumeview/internal/models"
)

// DefaultReplicateDepth is how often a lone 2D slice is repeated
const DefaultReplicateDepth = 10

// Assembler turns a set of slice records into a Volume.
//
// Records are stable-sorted by their spatial key (position, then slice
// location, then ingestion index), their planes are stacked along depth
// in that order and the default window is taken from the spatially-first
// record or derived from the data.
type Assembler struct {
	// ReplicateDepth is the depth given to a volume built from a single
	// 2D plane
	ReplicateDepth int

	logger zerolog.Logger
}

// NewAssembler creates an assembler. A replicate depth below 1 falls
// back to DefaultReplicateDepth.
func NewAssembler(replicateDepth int, logger *zerolog.Logger) *Assembler {
	if replicateDepth < 1 {
		replicateDepth = DefaultReplicateDepth
	}
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &Assembler{ReplicateDepth: replicateDepth, logger: l}
}

// keyedRecord pairs a record with its resolved spatial key
type keyedRecord struct {
	rec    *models.SliceRecord
	key    float64
	source models.KeySource
}

// Assemble builds a Volume from records. Nil records and records without
// pixel data are skipped; the call fails with ErrEmptyInput if nothing
// remains and with a *DimensionMismatchError if planes differ in size.
func (a *Assembler) Assemble(records []*models.SliceRecord) (*models.Volume, error) {
	keyed := make([]keyedRecord, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if len(rec.Planes) == 0 {
			a.logger.Warn().Str("source", rec.Source).Msg("skipping slice without pixel data")
			continue
		}
		key, src := rec.SpatialKey()
		keyed = append(keyed, keyedRecord{rec: rec, key: key, source: src})
	}
	if len(keyed) == 0 {
		return nil, fmt.Errorf("%w: nothing to assemble", ErrEmptyInput)
	}

	if sources := keySources(keyed); len(sources) > 1 {
		a.logger.Warn().Strs("keySources", sources).Int("slices", len(keyed)).
			Msg("series mixes spatial key sources, slice order may not match anatomy")
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		return keyed[i].key < keyed[j].key
	})

	// Flatten planes in sorted record order, checking every plane against
	// the first one
	first := keyed[0].rec.Planes[0]
	var planes []models.Grid
	for _, k := range keyed {
		for _, p := range k.rec.Planes {
			if p.Rows != first.Rows || p.Cols != first.Cols || len(p.Data) != p.Rows*p.Cols {
				return nil, &DimensionMismatchError{
					Source:   k.rec.Source,
					WantCols: first.Cols, WantRows: first.Rows,
					GotCols: p.Cols, GotRows: p.Rows,
				}
			}
			planes = append(planes, p)
		}
	}

	if len(planes) == 1 {
		a.logger.Info().Int("depth", a.ReplicateDepth).Msg("single slice input, replicating along depth")
		single := planes[0]
		planes = make([]models.Grid, a.ReplicateDepth)
		for i := range planes {
			planes[i] = single
		}
	}

	vol := stack(planes)
	head := keyed[0].rec
	vol.Metadata = head.Metadata.Clone()

	if w := head.Window; w != nil && int(w.Width) > 0 {
		vol.WindowWidth = int(w.Width)
		vol.WindowLevel = int(w.Level)
	} else {
		vol.WindowWidth, vol.WindowLevel = models.DefaultWindow(vol.Data)
	}

	if head.PixelSpacing != nil {
		vol.VoxelSize.Y = head.PixelSpacing[0]
		vol.VoxelSize.X = head.PixelSpacing[1]
	}
	switch {
	case head.Spacing != nil:
		vol.VoxelSize.Z = *head.Spacing
	case head.Thickness != nil:
		vol.VoxelSize.Z = *head.Thickness
	}

	a.logger.Info().
		Int("width", vol.Width).Int("height", vol.Height).Int("depth", vol.Depth).
		Int("windowWidth", vol.WindowWidth).Int("windowLevel", vol.WindowLevel).
		Msg("assembled volume")

	return vol, nil
}

// PlaneCount returns the number of planes the records would contribute
func PlaneCount(records []*models.SliceRecord) int {
	n := 0
	for _, rec := range records {
		if rec != nil {
			n += len(rec.Planes)
		}
	}
	return n
}

// MixedKeySources reports whether records take their spatial key from
// different fields
func MixedKeySources(records []*models.SliceRecord) bool {
	seen := -1
	for _, rec := range records {
		if rec == nil || len(rec.Planes) == 0 {
			continue
		}
		_, src := rec.SpatialKey()
		if seen >= 0 && int(src) != seen {
			return true
		}
		seen = int(src)
	}
	return false
}

func keySources(keyed []keyedRecord) []string {
	var seen [3]bool
	var out []string
	for _, k := range keyed {
		if !seen[k.source] {
			seen[k.source] = true
			out = append(out, k.source.String())
		}
	}
	return out
}

// stack copies planes into one contiguous volume, plane i at depth i
func stack(planes []models.Grid) *models.Volume {
	rows, cols := planes[0].Rows, planes[0].Cols
	n := rows * cols

	vol := &models.Volume{
		Width:  cols,
		Height: rows,
		Depth:  len(planes),
		Data:   make([]float64, n*len(planes)),
	}
	for z, p := range planes {
		copy(vol.Data[z*n:(z+1)*n], p.Data)
	}
	return vol
}
