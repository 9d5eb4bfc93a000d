package visualization

import (
	"image"
	"image/color"
	"image/draw"

	"volumeview/internal/models"
)

// Orientation of a crosshair line on the primary section
type Orientation int

const (
	// Vertical lines sit at a column
	Vertical Orientation = iota
	// Horizontal lines sit at a row
	Horizontal
)

// Style is a rendering hint for the crosshair
type Style struct {
	Color  color.RGBA
	Width  int
	Dashed bool
	Alpha  float64
}

var (
	sagittalStyle = Style{Color: color.RGBA{R: 0, G: 255, B: 255, A: 255}, Width: 2, Dashed: true, Alpha: 0.8}
	coronalStyle  = Style{Color: color.RGBA{R: 255, G: 255, B: 0, A: 255}, Width: 2, Dashed: true, Alpha: 0.8}
)

// Overlay describes where the secondary section cuts the primary one.
// It is an instruction for the display layer; no pixels are changed.
type Overlay struct {
	Axis        models.Axis
	Orientation Orientation
	Position    int
	Style       Style
}

// Crosshair returns the overlay for a secondary section at index:
// a vertical line at that column for sagittal, a horizontal line at
// that row for coronal.
func Crosshair(axis models.Axis, index int) Overlay {
	if axis == models.Coronal {
		return Overlay{Axis: axis, Orientation: Horizontal, Position: index, Style: coronalStyle}
	}
	return Overlay{Axis: axis, Orientation: Vertical, Position: index, Style: sagittalStyle}
}

const dashLength = 4

// Draw composites the overlay onto a copy of img. The source image is
// left untouched.
func (o Overlay) Draw(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	half := o.Style.Width / 2
	blend := func(x, y int) {
		if !(image.Point{X: x, Y: y}).In(b) {
			return
		}
		c := out.RGBAAt(x, y)
		a := o.Style.Alpha
		mix := func(dst, src uint8) uint8 {
			return uint8(float64(dst)*(1-a) + float64(src)*a)
		}
		out.SetRGBA(x, y, color.RGBA{
			R: mix(c.R, o.Style.Color.R),
			G: mix(c.G, o.Style.Color.G),
			B: mix(c.B, o.Style.Color.B),
			A: 255,
		})
	}

	switch o.Orientation {
	case Vertical:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if o.Style.Dashed && ((y-b.Min.Y)/dashLength)%2 == 1 {
				continue
			}
			for dx := -half; dx < o.Style.Width-half; dx++ {
				blend(b.Min.X+o.Position+dx, y)
			}
		}
	case Horizontal:
		for x := b.Min.X; x < b.Max.X; x++ {
			if o.Style.Dashed && ((x-b.Min.X)/dashLength)%2 == 1 {
				continue
			}
			for dy := -half; dy < o.Style.Width-half; dy++ {
				blend(x, b.Min.Y+o.Position+dy)
			}
		}
	}
	return out
}
