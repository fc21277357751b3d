// ABOUTME: Tests for chart rendering.
// ABOUTME: Checks output signatures, empty-data guards, and single-point padding.
package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func bp() models.ThresholdSet {
	t, _ := models.DefaultThresholds(models.StatusBloodPressure)
	return t
}

func records(values ...string) []*models.HealthMetric {
	var out []*models.HealthMetric
	base := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)
	for i, v := range values {
		out = append(out, &models.HealthMetric{
			Type:      models.StatusBloodPressure,
			Value:     v,
			Timestamp: base.AddDate(0, 0, i),
		})
	}
	return out
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	assert.Equal(t, "image/png", f.ContentType())

	f, err = ParseFormat("svg")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestTitles(t *testing.T) {
	assert.Equal(t, "BLOOD PRESSURE Distribution", BarTitle("Blood Pressure"))
	assert.Equal(t, "blood pressure Trend", LineTitle("blood pressure"))
}

func TestRenderBarPNG(t *testing.T) {
	b := series.ToBarBuckets(records("115", "125", "135"), bp())

	var buf bytes.Buffer
	require.NoError(t, RenderBar(&buf, "Blood Pressure", bp(), b, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature))
}

func TestRenderBarSVG(t *testing.T) {
	b := series.Buckets{Normal: 4, Elevated: 0, High: 1}

	var buf bytes.Buffer
	require.NoError(t, RenderBar(&buf, "Blood Pressure", bp(), b, FormatSVG))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderBarNoData(t *testing.T) {
	var buf bytes.Buffer
	err := RenderBar(&buf, "Blood Pressure", bp(), series.Buckets{}, FormatPNG)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestRenderLine(t *testing.T) {
	ls := series.ToLineSeries(records("118", "124", "131", "127"), bp(), "blood pressure")

	var buf bytes.Buffer
	require.NoError(t, RenderLine(&buf, ls, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature))
}

func TestRenderLineSinglePoint(t *testing.T) {
	ls := series.ToLineSeries(records("118"), bp(), "blood pressure")

	var buf bytes.Buffer
	require.NoError(t, RenderLine(&buf, ls, FormatSVG))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderLineSkipsNonNumeric(t *testing.T) {
	ls := series.ToLineSeries(records("n/a", "121", "oops"), bp(), "blood pressure")

	var buf bytes.Buffer
	require.NoError(t, RenderLine(&buf, ls, FormatPNG))

	ls = series.ToLineSeries(records("n/a"), bp(), "blood pressure")
	buf.Reset()
	assert.ErrorIs(t, RenderLine(&buf, ls, FormatPNG), ErrNoData)
}

func TestCountTicks(t *testing.T) {
	ticks, top := countTicks(1)
	assert.Equal(t, 1.0, top)
	assert.Len(t, ticks, 2)

	ticks, top = countTicks(12)
	assert.Equal(t, 12.0, top)
	assert.Equal(t, 3.0, ticks[1].Value)

	_, top = countTicks(11)
	assert.GreaterOrEqual(t, top, 11.0)
}
