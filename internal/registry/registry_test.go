// ABOUTME: Tests for the status type registry.
// ABOUTME: Uses a temporary SQLite store and a failing store for error paths.
package registry

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRegistry(t *testing.T) (*Registry, storage.Store) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "healthstatus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, nil), db
}

func moodThresholds() models.ThresholdSet {
	return models.ThresholdSet{
		Normal:   3,
		Elevated: 6,
		High:     9,
		Ranges:   models.RangeNames{Normal: "Low", Elevated: "Okay", High: "Great"},
	}
}

type failingStore struct {
	storage.Store
	err error
}

func (f failingStore) ListStatusTypes(context.Context, string) ([]models.StatusType, error) {
	return nil, f.err
}

func (f failingStore) DeleteStatusType(context.Context, string, string) error {
	return f.err
}

func TestListBuiltinsFirst(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	types, err := r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, models.StatusBloodPressure, types[0].ID)
	assert.Equal(t, models.StatusSleepQuality, types[1].ID)

	_, err = r.Add(ctx, "u1", "Mood", moodThresholds())
	require.NoError(t, err)

	types, err = r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, "mood", types[2].ID)
}

func TestAddDerivesID(t *testing.T) {
	r, _ := setupRegistry(t)

	st, err := r.Add(context.Background(), "u1", "Mood", moodThresholds())
	require.NoError(t, err)
	assert.Equal(t, "mood", st.ID)
	assert.Equal(t, "Mood", st.Name)
	assert.Equal(t, 6.0, st.Thresholds.Elevated)

	st, err = r.Add(context.Background(), "u1", "Resting  Heart\tRate", moodThresholds())
	require.NoError(t, err)
	assert.Equal(t, "resting-heart-rate", st.ID)
}

func TestAddRejectsDuplicates(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	_, err := r.Add(ctx, "u1", "Blood Pressure", moodThresholds())
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = r.Add(ctx, "u1", "Mood", moodThresholds())
	require.NoError(t, err)

	// Different case derives the same id
	_, err = r.Add(ctx, "u1", "mood", moodThresholds())
	assert.ErrorIs(t, err, ErrDuplicateID)

	// Another user may use the same name
	_, err = r.Add(ctx, "u2", "Mood", moodThresholds())
	assert.NoError(t, err)
}

func TestAddValidates(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	bad := moodThresholds()
	bad.Elevated = bad.Normal
	_, err := r.Add(ctx, "u1", "Mood", bad)
	assert.ErrorIs(t, err, models.ErrInvalidThresholds)

	blank := moodThresholds()
	blank.Ranges.High = "   "
	_, err = r.Add(ctx, "u1", "Mood", blank)
	assert.ErrorIs(t, err, models.ErrInvalidThresholds)

	_, err = r.Add(ctx, "u1", "<b></b>", moodThresholds())
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestAddSanitizes(t *testing.T) {
	r, _ := setupRegistry(t)

	th := moodThresholds()
	th.Ranges.Normal = "<i>Low</i>"
	st, err := r.Add(context.Background(), "u1", "<b>Energy</b>", th)
	require.NoError(t, err)
	assert.Equal(t, "Energy", st.Name)
	assert.Equal(t, "energy", st.ID)
	assert.Equal(t, "Low", st.Thresholds.Ranges.Normal)
}

func TestRemove(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	err := r.Remove(ctx, "u1", models.StatusBloodPressure)
	assert.ErrorIs(t, err, ErrProtectedEntity)

	assert.NoError(t, r.Remove(ctx, "u1", "does-not-exist"))

	_, err = r.Add(ctx, "u1", "Mood", moodThresholds())
	require.NoError(t, err)
	require.NoError(t, r.Remove(ctx, "u1", "mood"))

	types, err := r.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, types, 2)
}

func TestResolve(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	st, err := r.Resolve(ctx, "u1", models.StatusSleepQuality)
	require.NoError(t, err)
	assert.Equal(t, "Sleep Quality", st.Name)
	assert.Equal(t, 7.0, st.Thresholds.Normal)

	_, err = r.Resolve(ctx, "u1", "mood")
	assert.ErrorIs(t, err, ErrUnknownStatusType)

	_, err = r.Add(ctx, "u1", "Mood", moodThresholds())
	require.NoError(t, err)
	st, err = r.Resolve(ctx, "u1", "mood")
	require.NoError(t, err)
	assert.Equal(t, "Great", st.Thresholds.Ranges.High)
}

func TestStoreFailuresPropagate(t *testing.T) {
	boom := errors.New("store offline")
	r := New(failingStore{err: boom}, nil)
	ctx := context.Background()

	_, err := r.List(ctx, "u1")
	assert.ErrorIs(t, err, boom)

	_, err = r.Add(ctx, "u1", "Mood", moodThresholds())
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, r.Remove(ctx, "u1", "mood"), boom)

	_, err = r.Resolve(ctx, "u1", "mood")
	assert.ErrorIs(t, err, boom)

	// Built-ins resolve without the store
	_, err = r.Resolve(ctx, "u1", models.StatusBloodPressure)
	assert.NoError(t, err)
}

func TestParseAndImport(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	doc := `
status_types:
  - name: Mood
    thresholds:
      normal: 3
      elevated: 6
      high: 9
      ranges:
        normal: Low
        elevated: Okay
        high: Great
  - name: Blood Pressure
    thresholds:
      normal: 1
      elevated: 2
      high: 3
      ranges:
        normal: a
        elevated: b
        high: c
`
	defs, err := ParseDefinitions(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "Okay", defs[0].Thresholds.Ranges.Elevated)

	res, err := r.Import(ctx, "u1", defs)
	require.NoError(t, err)
	require.Len(t, res.Added, 1)
	assert.Equal(t, "mood", res.Added[0].ID)
	assert.Equal(t, []string{models.StatusBloodPressure}, res.Skipped)
}

func TestImportStopsOnInvalid(t *testing.T) {
	r, _ := setupRegistry(t)

	defs := []Definition{{Name: "Broken", Thresholds: models.ThresholdSet{Normal: 5, Elevated: 1, High: 9}}}
	_, err := r.Import(context.Background(), "u1", defs)
	assert.ErrorIs(t, err, models.ErrInvalidThresholds)
}

func TestParseDefinitionsRejectsUnknownFields(t *testing.T) {
	_, err := ParseDefinitions(strings.NewReader("status_types:\n  - nme: Mood\n"))
	assert.Error(t, err)

	defs, err := ParseDefinitions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, defs)
}
