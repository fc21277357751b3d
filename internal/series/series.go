// ABOUTME: Shapes classified metric records into chart-ready data.
// ABOUTME: Bar bucket counts, ascending line series with threshold reference lines, recent rows.
package series

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/harperreed/healthstatus/internal/models"
)

// RecentLimit is the number of rows shown in the recent records table.
const RecentLimit = 5

// Buckets counts records per classification bucket.
type Buckets struct {
	Normal   int `json:"normal"`
	Elevated int `json:"elevated"`
	High     int `json:"high"`
}

// Count returns the count for b.
func (c Buckets) Count(b models.Bucket) int {
	switch b {
	case models.BucketNormal:
		return c.Normal
	case models.BucketElevated:
		return c.Elevated
	default:
		return c.High
	}
}

// Total returns the sum of all buckets.
func (c Buckets) Total() int {
	return c.Normal + c.Elevated + c.High
}

// ToBarBuckets classifies every record. Values that do not parse become NaN
// and land in High, matching the comparison fallthrough.
func ToBarBuckets(records []*models.HealthMetric, t models.ThresholdSet) Buckets {
	var c Buckets
	for _, r := range records {
		switch t.Classify(valueOf(r)) {
		case models.BucketNormal:
			c.Normal++
		case models.BucketElevated:
			c.Elevated++
		default:
			c.High++
		}
	}
	return c
}

// Point is one (timestamp, value) sample.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// MarshalJSON encodes non-finite values as null.
func (p Point) MarshalJSON() ([]byte, error) {
	var v *float64
	if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
		v = &p.Value
	}
	return json.Marshal(struct {
		Timestamp time.Time `json:"timestamp"`
		Value     *float64  `json:"value"`
	}{p.Timestamp, v})
}

// Line is a labeled sequence of points.
type Line struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// LineSeries is the primary value line plus one constant reference line per threshold.
type LineSeries struct {
	Primary    Line   `json:"primary"`
	References []Line `json:"references"`
}

// ToLineSeries sorts records ascending by timestamp (stable) and builds the
// primary line and the normal, elevated and high reference lines, each
// repeated at every primary timestamp and labeled with its range name.
func ToLineSeries(records []*models.HealthMetric, t models.ThresholdSet, label string) LineSeries {
	sorted := make([]*models.HealthMetric, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	ls := LineSeries{
		Primary:    Line{Label: label, Points: make([]Point, 0, len(sorted))},
		References: make([]Line, 0, len(models.AllBuckets)),
	}
	for _, r := range sorted {
		ls.Primary.Points = append(ls.Primary.Points, Point{Timestamp: r.Timestamp, Value: valueOf(r)})
	}
	for _, b := range models.AllBuckets {
		ref := Line{Label: t.Ranges.Label(b), Points: make([]Point, 0, len(sorted))}
		for _, p := range ls.Primary.Points {
			ref.Points = append(ref.Points, Point{Timestamp: p.Timestamp, Value: t.Value(b)})
		}
		ls.References = append(ls.References, ref)
	}
	return ls
}

// Recent returns up to n records, newest first.
func Recent(records []*models.HealthMetric, n int) []*models.HealthMetric {
	sorted := make([]*models.HealthMetric, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func valueOf(r *models.HealthMetric) float64 {
	v, err := models.ParseValue(r.Value)
	if err != nil {
		return math.NaN()
	}
	return v
}
