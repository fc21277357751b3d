// ABOUTME: Status metric definitions: three-tier thresholds, buckets, and status types.
// ABOUTME: Holds the classifier and the built-in blood-pressure and sleep-quality types.
package models

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidThresholds is returned when a ThresholdSet fails construction checks.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// Bucket is the classification outcome for a metric value.
type Bucket int

const (
	BucketNormal Bucket = iota
	BucketElevated
	BucketHigh
)

// AllBuckets lists buckets in display order.
var AllBuckets = []Bucket{BucketNormal, BucketElevated, BucketHigh}

func (b Bucket) String() string {
	switch b {
	case BucketNormal:
		return "normal"
	case BucketElevated:
		return "elevated"
	case BucketHigh:
		return "high"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// RangeNames holds one display label per bucket.
type RangeNames struct {
	Normal   string `json:"normal" bson:"normal" yaml:"normal"`
	Elevated string `json:"elevated" bson:"elevated" yaml:"elevated"`
	High     string `json:"high" bson:"high" yaml:"high"`
}

// Label returns the range name for a bucket.
func (r RangeNames) Label(b Bucket) string {
	switch b {
	case BucketNormal:
		return r.Normal
	case BucketElevated:
		return r.Elevated
	default:
		return r.High
	}
}

// ThresholdSet is the three ascending boundaries of a status metric plus their labels.
// Values are immutable once built; replace the whole set to change it.
type ThresholdSet struct {
	Normal   float64    `json:"normal" bson:"normal" yaml:"normal"`
	Elevated float64    `json:"elevated" bson:"elevated" yaml:"elevated"`
	High     float64    `json:"high" bson:"high" yaml:"high"`
	Ranges   RangeNames `json:"ranges" bson:"ranges" yaml:"ranges"`
}

// NewThresholdSet validates and returns a ThresholdSet.
func NewThresholdSet(normal, elevated, high float64, ranges RangeNames) (ThresholdSet, error) {
	t := ThresholdSet{Normal: normal, Elevated: elevated, High: high, Ranges: ranges}
	if err := t.Validate(); err != nil {
		return ThresholdSet{}, err
	}
	return t, nil
}

// Validate checks normal < elevated < high and that every range label is non-blank.
func (t ThresholdSet) Validate() error {
	for _, v := range []float64{t.Normal, t.Elevated, t.High} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: thresholds must be finite numbers", ErrInvalidThresholds)
		}
	}
	if !(t.Normal < t.Elevated) || !(t.Elevated < t.High) {
		return fmt.Errorf("%w: thresholds must be in ascending order (%g < %g < %g)",
			ErrInvalidThresholds, t.Normal, t.Elevated, t.High)
	}
	labels := map[string]string{
		"normal":   t.Ranges.Normal,
		"elevated": t.Ranges.Elevated,
		"high":     t.Ranges.High,
	}
	for _, name := range []string{"normal", "elevated", "high"} {
		if strings.TrimSpace(labels[name]) == "" {
			return fmt.Errorf("%w: %s range label is empty", ErrInvalidThresholds, name)
		}
	}
	return nil
}

// Classify maps a value to a bucket. Only Normal and Elevated are decision
// boundaries; High is a display boundary. NaN falls through to BucketHigh.
func (t ThresholdSet) Classify(v float64) Bucket {
	if v < t.Normal {
		return BucketNormal
	}
	if v <= t.Elevated {
		return BucketElevated
	}
	return BucketHigh
}

// Value returns the boundary associated with a bucket.
func (t ThresholdSet) Value(b Bucket) float64 {
	switch b {
	case BucketNormal:
		return t.Normal
	case BucketElevated:
		return t.Elevated
	default:
		return t.High
	}
}

// ErrNotNumeric is returned when a value has no leading number.
var ErrNotNumeric = errors.New("value is not numeric")

var leadingNumber = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// ParseValue reads the leading number of a raw user-entered value, so
// "120/80" is 120 and "118 mmHg" is 118. Trailing text is ignored.
func ParseValue(raw string) (float64, error) {
	num := leadingNumber.FindString(strings.TrimSpace(raw))
	if num == "" {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("parse value %q: %w", raw, err)
	}
	return v, nil
}

// ClassifyRaw parses raw and classifies it. Non-numeric input is an error, never a silent zero.
func ClassifyRaw(raw string, t ThresholdSet) (Bucket, error) {
	v, err := ParseValue(raw)
	if err != nil {
		return 0, err
	}
	return t.Classify(v), nil
}

// StatusType is a named, user-scoped metric definition.
type StatusType struct {
	ID         string       `json:"id" bson:"id"`
	Name       string       `json:"name" bson:"name"`
	Thresholds ThresholdSet `json:"thresholds" bson:"thresholds"`
}

// Builtin status identifiers.
const (
	StatusBloodPressure = "blood-pressure"
	StatusSleepQuality  = "sleep-quality"
)

var bloodPressureThresholds = ThresholdSet{
	Normal:   120,
	Elevated: 129,
	High:     130,
	Ranges: RangeNames{
		Normal:   "Normal (<120)",
		Elevated: "Elevated (120-129)",
		High:     "High (>130)",
	},
}

var sleepQualityThresholds = ThresholdSet{
	Normal:   7,
	Elevated: 8,
	High:     9,
	Ranges: RangeNames{
		Normal:   "Poor (<7)",
		Elevated: "Good (7-8)",
		High:     "Excellent (>8)",
	},
}

// defaultThresholds is the closed mapping from known metric types to their thresholds.
var defaultThresholds = map[string]ThresholdSet{
	StatusBloodPressure: bloodPressureThresholds,
	StatusSleepQuality:  sleepQualityThresholds,
}

// BuiltinStatusTypes returns the built-in status types in display order.
// A fresh slice is returned on every call.
func BuiltinStatusTypes() []StatusType {
	return []StatusType{
		{ID: StatusBloodPressure, Name: "Blood Pressure", Thresholds: bloodPressureThresholds},
		{ID: StatusSleepQuality, Name: "Sleep Quality", Thresholds: sleepQualityThresholds},
	}
}

// IsBuiltinStatusID reports whether id names a built-in status type.
func IsBuiltinStatusID(id string) bool {
	_, ok := defaultThresholds[id]
	return ok
}

// DefaultThresholds returns the thresholds for a known metric type.
// ok is false when the type has no default.
func DefaultThresholds(typeID string) (ThresholdSet, bool) {
	t, ok := defaultThresholds[typeID]
	return t, ok
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// StatusIDFromName derives a status id: lowercased, whitespace runs become hyphens.
func StatusIDFromName(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}

// DisplayName turns a type id back into something readable ("blood-pressure" -> "blood pressure").
func DisplayName(typeID string) string {
	return strings.Join(strings.Split(typeID, "-"), " ")
}
