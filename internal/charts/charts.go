// ABOUTME: Renders bucket bar charts and trend line charts with go-chart.
// ABOUTME: Outputs PNG or SVG; reference lines are dashed at each threshold.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/series"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to chart")

// Default chart size in pixels.
const (
	DefaultWidth  = 800
	DefaultHeight = 400
)

// Format is an output image format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unknown chart format %q", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatSVG {
		return chart.SVG
	}
	return chart.PNG
}

var bucketColors = map[models.Bucket]drawing.Color{
	models.BucketNormal:   drawing.ColorFromHex("4caf50"),
	models.BucketElevated: drawing.ColorFromHex("ff9800"),
	models.BucketHigh:     drawing.ColorFromHex("f44336"),
}

// BarTitle returns "<NAME> Distribution".
func BarTitle(name string) string {
	return strings.ToUpper(name) + " Distribution"
}

// LineTitle returns "<name> Trend".
func LineTitle(name string) string {
	return name + " Trend"
}

// RenderBar draws one bar per bucket labeled with its range name.
func RenderBar(w io.Writer, name string, t models.ThresholdSet, b series.Buckets, f Format) error {
	if b.Total() == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, 0, len(models.AllBuckets))
	maxCount := 0
	for _, bk := range models.AllBuckets {
		n := b.Count(bk)
		if n > maxCount {
			maxCount = n
		}
		bars = append(bars, chart.Value{
			Label: t.Ranges.Label(bk),
			Value: float64(n),
			Style: chart.Style{
				FillColor:   bucketColors[bk],
				StrokeColor: bucketColors[bk],
				StrokeWidth: 1,
			},
		})
	}

	ticks, top := countTicks(maxCount)
	bc := chart.BarChart{
		Title:      BarTitle(name),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		BarWidth:   120,
		YAxis: chart.YAxis{
			Name:  "Number of Readings",
			Range: &chart.ContinuousRange{Min: 0, Max: top},
			Ticks: ticks,
		},
		Bars: bars,
	}

	if err := bc.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// countTicks returns whole-number ticks from zero to at least maxCount.
func countTicks(maxCount int) ([]chart.Tick, float64) {
	step := int(math.Ceil(float64(maxCount) / 5))
	if step < 1 {
		step = 1
	}
	var ticks []chart.Tick
	v := 0
	for {
		ticks = append(ticks, chart.Tick{Value: float64(v), Label: fmt.Sprintf("%d", v)})
		if v >= maxCount {
			break
		}
		v += step
	}
	return ticks, float64(v)
}

// RenderLine draws the primary series and the dashed reference lines.
// Non-numeric samples are skipped.
func RenderLine(w io.Writer, ls series.LineSeries, f Format) error {
	xs, ys := finitePoints(ls.Primary.Points)
	if len(xs) == 0 {
		return ErrNoData
	}
	// A single point has no x-range; pad to a flat segment
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(time.Hour))
		ys = append(ys, ys[0])
	}

	chartSeries := []chart.Series{
		chart.TimeSeries{
			Name:    ls.Primary.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("1976d2"),
				StrokeWidth: 2,
				DotColor:    drawing.ColorFromHex("1976d2"),
				DotWidth:    3,
			},
		},
	}
	for i, ref := range ls.References {
		bk := models.AllBuckets[i%len(models.AllBuckets)]
		refY := make([]float64, len(xs))
		for j := range refY {
			refY[j] = referenceValue(ref)
		}
		chartSeries = append(chartSeries, chart.TimeSeries{
			Name:    ref.Label,
			XValues: xs,
			YValues: refY,
			Style: chart.Style{
				StrokeColor:     bucketColors[bk],
				StrokeWidth:     1,
				StrokeDashArray: []float64{5, 5},
			},
		})
	}

	ch := chart.Chart{
		Title:      LineTitle(ls.Primary.Label),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2")},
		Series:     chartSeries,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}

func finitePoints(points []series.Point) ([]time.Time, []float64) {
	xs := make([]time.Time, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		xs = append(xs, p.Timestamp)
		ys = append(ys, p.Value)
	}
	return xs, ys
}

func referenceValue(ref series.Line) float64 {
	if len(ref.Points) == 0 {
		return 0
	}
	return ref.Points[0].Value
}
