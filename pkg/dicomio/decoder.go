// Package dicomio decodes DICOM files into slice records and finds DICOM
// files on disk.
package dicomio

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"volumeview/internal/models"
)

// ErrNoPixelData is returned for datasets without an image
var ErrNoPixelData = errors.New("dataset has no pixel data")

// metadataTags are copied verbatim into the record's metadata bag
var metadataTags = map[string]tag.Tag{
	models.MetaPatientName:      tag.PatientName,
	models.MetaPatientID:        tag.PatientID,
	models.MetaPatientSex:       tag.PatientSex,
	models.MetaPatientBirthDate: tag.PatientBirthDate,
	models.MetaStudyDate:        tag.StudyDate,
	models.MetaBodyPart:         tag.BodyPartExamined,
	models.MetaModality:         tag.Modality,
	models.MetaManufacturer:     tag.Manufacturer,
	models.MetaSliceThickness:   tag.SliceThickness,
	models.MetaSpacing:          tag.SpacingBetweenSlices,
}

// Decoder reads DICOM files. It is safe for concurrent use.
type Decoder struct {
	// ApplyRescale converts stored values with RescaleSlope and
	// RescaleIntercept when present
	ApplyRescale bool
}

// NewDecoder creates a DICOM decoder
func NewDecoder(applyRescale bool) *Decoder {
	return &Decoder{ApplyRescale: applyRescale}
}

// Decode parses the file at path into a slice record
func (d *Decoder) Decode(ctx context.Context, path string) (*models.SliceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	ds, err := dicom.Parse(f, info.Size(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DICOM: %w", err)
	}

	rec, err := d.FromDataset(ds)
	if err != nil {
		return nil, err
	}
	rec.Source = path
	return rec, nil
}

// FromDataset converts a parsed dataset into a slice record. Optional
// attributes that are missing or malformed are left nil.
func (d *Decoder) FromDataset(ds dicom.Dataset) (*models.SliceRecord, error) {
	planes, err := readPlanes(ds)
	if err != nil {
		return nil, err
	}

	rec := &models.SliceRecord{Planes: planes, Metadata: models.Metadata{}}

	if v, ok := floats(ds, tag.ImagePositionPatient); ok && len(v) >= 3 {
		rec.Position = &[3]float64{v[0], v[1], v[2]}
	}
	if v, ok := floats(ds, tag.SliceLocation); ok && len(v) > 0 {
		rec.Location = models.Float64(v[0])
	}
	ww, okW := floats(ds, tag.WindowWidth)
	wc, okC := floats(ds, tag.WindowCenter)
	if okW && okC && len(ww) > 0 && len(wc) > 0 {
		rec.Window = &models.Window{Width: ww[0], Level: wc[0]}
	}
	if v, ok := floats(ds, tag.PixelSpacing); ok && len(v) >= 2 {
		rec.PixelSpacing = &[2]float64{v[0], v[1]}
	}
	if v, ok := floats(ds, tag.SliceThickness); ok && len(v) > 0 {
		rec.Thickness = models.Float64(v[0])
	}
	if v, ok := floats(ds, tag.SpacingBetweenSlices); ok && len(v) > 0 {
		rec.Spacing = models.Float64(v[0])
	}

	for key, t := range metadataTags {
		if s, ok := stringsOf(ds, t); ok && len(s) > 0 {
			rec.Metadata[key] = strings.Join(s, `\`)
		}
	}

	if d.ApplyRescale {
		slope, intercept := 1.0, 0.0
		if v, ok := floats(ds, tag.RescaleSlope); ok && len(v) > 0 && v[0] != 0 {
			slope = v[0]
		}
		if v, ok := floats(ds, tag.RescaleIntercept); ok && len(v) > 0 {
			intercept = v[0]
		}
		if slope != 1 || intercept != 0 {
			for _, p := range rec.Planes {
				for i, v := range p.Data {
					p.Data[i] = v*slope + intercept
				}
			}
		}
	}

	return rec, nil
}

// readPlanes converts every frame of the pixel data into a grid
func readPlanes(ds dicom.Dataset) ([]models.Grid, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, ErrNoPixelData
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return nil, ErrNoPixelData
	}

	planes := make([]models.Grid, 0, len(info.Frames))
	for i, fr := range info.Frames {
		g, err := frameToGrid(fr)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		planes = append(planes, g)
	}
	return planes, nil
}

func frameToGrid(fr *frame.Frame) (models.Grid, error) {
	if fr == nil {
		return models.Grid{}, ErrNoPixelData
	}
	if fr.Encapsulated {
		img, err := fr.GetImage()
		if err != nil {
			return models.Grid{}, fmt.Errorf("failed to decode encapsulated frame: %w", err)
		}
		return imageToGrid(img), nil
	}

	native := fr.NativeData
	if native == nil {
		return models.Grid{}, ErrNoPixelData
	}
	rows, cols := native.Rows(), native.Cols()
	if rows <= 0 || cols <= 0 {
		return models.Grid{}, fmt.Errorf("invalid frame size %dx%d", cols, rows)
	}

	g := models.NewGrid(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			samples, err := native.GetPixel(x, y)
			if err != nil {
				return models.Grid{}, err
			}
			g.Data[y*cols+x] = mean(samples)
		}
	}
	return g, nil
}

// imageToGrid converts a decoded image to 16-bit gray intensities
func imageToGrid(img image.Image) models.Grid {
	b := img.Bounds()
	g := models.NewGrid(b.Dy(), b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			g.Data[(y-b.Min.Y)*g.Cols+(x-b.Min.X)] = float64(c.Y)
		}
	}
	return g
}

func mean(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0
	for _, s := range samples {
		sum += s
	}
	return float64(sum) / float64(len(samples))
}

// stringsOf returns the values of t rendered as strings
func stringsOf(ds dicom.Dataset, t tag.Tag) ([]string, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return nil, false
	}
	switch v := el.Value.GetValue().(type) {
	case []string:
		return v, true
	case []int:
		out := make([]string, len(v))
		for i, n := range v {
			out[i] = strconv.Itoa(n)
		}
		return out, true
	case []float64:
		out := make([]string, len(v))
		for i, f := range v {
			out[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return out, true
	}
	return nil, false
}

// floats returns the numeric values of t. Decimal strings may carry
// padding and backslash-separated multiple values. Any NaN or infinite
// value makes the whole attribute unusable.
func floats(ds dicom.Dataset, t tag.Tag) ([]float64, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return nil, false
	}
	switch v := el.Value.GetValue().(type) {
	case []float64:
		for _, f := range v {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, false
			}
		}
		return v, len(v) > 0
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, len(out) > 0
	case []string:
		var out []float64
		for _, s := range v {
			for _, part := range strings.Split(s, `\`) {
				part = strings.TrimSpace(strings.Trim(part, "\x00"))
				if part == "" {
					continue
				}
				f, err := strconv.ParseFloat(part, 64)
				if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
					return nil, false
				}
				out = append(out, f)
			}
		}
		return out, len(out) > 0
	}
	return nil, false
}
