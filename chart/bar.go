// Package chart renders the class probability bar chart.
package chart

import (
	"errors"
	"fmt"
	"html"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNoBars = errors.New("chart needs at least one bar")

const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

type Bar struct {
	Label string
	Value float64
}

type Options struct {
	Width  int
	Height int
	Format string
	Title  string
	XLabel string
	YLabel string
	// LabelRotation is the x tick label angle in degrees.
	LabelRotation float64
}

func DefaultOptions() Options {
	return Options{
		Width:         800,
		Height:        500,
		Format:        FormatSVG,
		Title:         "Probabilitas untuk Setiap Spesies Ikan",
		XLabel:        "Spesies Ikan",
		YLabel:        "Probabilitas (%)",
		LabelRotation: 45,
	}
}

// viridis samples, dark to light.
var palette = []string{"440154", "46327e", "365c8d", "277f8e", "1fa187", "4ac16d", "a0da39", "fde725"}

func ContentType(format string) string {
	if format == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Render draws a vertical bar per entry, values clamped to the 0-100 axis and
// rounded to two decimals.
func Render(w io.Writer, bars []Bar, opts Options) error {
	if len(bars) == 0 {
		return ErrNoBars
	}
	defaults := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = defaults.Width
	}
	if opts.Height <= 0 {
		opts.Height = defaults.Height
	}
	// The SVG renderer writes text verbatim.
	text := func(s string) string { return s }
	if opts.Format != FormatPNG {
		text = html.EscapeString
	}

	values := make([]gochart.Value, len(bars))
	for i, bar := range bars {
		values[i] = gochart.Value{
			Label: text(bar.Label),
			Value: clampPercent(bar.Value),
			Style: gochart.Style{
				FillColor:   barColor(i, len(bars)),
				StrokeColor: barColor(i, len(bars)),
				StrokeWidth: 1,
			},
		}
	}

	graph := gochart.BarChart{
		Title:  text(opts.Title),
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 90},
		},
		BarWidth: barWidth(opts.Width, len(bars)),
		XAxis: gochart.Style{
			TextRotationDegrees: opts.LabelRotation,
		},
		YAxis: gochart.YAxis{
			Name:  text(opts.YLabel),
			Range: &gochart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars:     values,
		Elements: []gochart.Renderable{xAxisName(text(opts.XLabel), opts.Height)},
	}

	switch opts.Format {
	case FormatPNG:
		return graph.Render(gochart.PNG, w)
	case FormatSVG, "":
		return graph.Render(gochart.SVG, w)
	default:
		return fmt.Errorf("unsupported chart format %q", opts.Format)
	}
}

// xAxisName writes the x axis title under the rotated tick labels; BarChart
// has no axis name of its own.
func xAxisName(text string, height int) gochart.Renderable {
	return func(r gochart.Renderer, canvas gochart.Box, defaults gochart.Style) {
		if text == "" {
			return
		}
		style := gochart.Style{
			Font:      defaults.Font,
			FontSize:  11,
			FontColor: drawing.ColorBlack,
		}
		style.WriteTextOptionsToRenderer(r)
		box := r.MeasureText(text)
		x, _ := canvas.Center()
		gochart.Draw.Text(r, text, x-box.Width()/2, height-12, style)
	}
}

// clampPercent keeps a value on the 0-100 axis, rounded to two decimals with
// ties to even.
func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return math.RoundToEven(v*100) / 100
}

func barColor(i, n int) drawing.Color {
	idx := 0
	if n > 1 {
		idx = i * (len(palette) - 1) / (n - 1)
	}
	return drawing.ColorFromHex(palette[idx])
}

func barWidth(width, count int) int {
	w := (width - 120) / (count * 2)
	if w > 80 {
		return 80
	}
	if w < 10 {
		return 10
	}
	return w
}
