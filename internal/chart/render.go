package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// Renderer rasterises chart specs to PNG
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer creates a renderer with default dimensions
func NewRenderer(width, height int) *Renderer {
	return &Renderer{Width: width, Height: height}
}

// RenderPNG draws spec as a line chart with a legend. Zero width or height
// falls back to the renderer defaults. A spec with no points produces a
// blank placeholder image.
func (r *Renderer) RenderPNG(spec *Spec, width, height int, w io.Writer) error {
	if width <= 0 {
		width = r.Width
	}
	if height <= 0 {
		height = r.Height
	}

	if spec == nil || spec.Points() == 0 {
		return placeholder(width, height, w)
	}

	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	series := make([]gochart.Series, 0, len(spec.Series))
	for i, s := range spec.Series {
		if len(s.X) == 0 {
			continue
		}

		xs, ys := s.X, s.Y
		// go-chart needs at least two X values per series
		if len(xs) == 1 {
			xs = []time.Time{xs[0], xs[0].Add(time.Second)}
			ys = []float64{ys[0], ys[0]}
		}
		for _, y := range ys {
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}

		col := gochart.GetDefaultColor(i)
		series = append(series, gochart.TimeSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    2,
			},
		})
	}

	// nil lets go-chart derive the range; a flat series needs explicit padding
	var yRange gochart.Range
	if maxY <= minY {
		pad := math.Max(1, math.Abs(minY)*0.05)
		yRange = &gochart.ContinuousRange{Min: minY - pad, Max: maxY + pad}
	}

	ch := gochart.Chart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis: gochart.XAxis{
			Name:           spec.XLabel,
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		YAxis: gochart.YAxis{
			Name:  spec.YLabel,
			Range: yRange,
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func placeholder(width, height int, w io.Writer) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, bg)
		}
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode placeholder: %w", err)
	}
	return nil
}
