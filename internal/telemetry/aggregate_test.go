package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRangeStore struct {
	readings []types.TelemetryReading

	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeRangeStore) ReadingsByDevice(_ context.Context, deviceID uuid.UUID, from, to time.Time) ([]types.TelemetryReading, error) {
	f.lastFrom = from
	f.lastTo = to

	var out []types.TelemetryReading
	for _, r := range f.readings {
		if r.DeviceID != deviceID {
			continue
		}
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func reading(deviceID uuid.UUID, ts time.Time, temp, hum float64) types.TelemetryReading {
	return types.TelemetryReading{
		ID:        uuid.New(),
		DeviceID:  deviceID,
		Timestamp: ts,
		Data:      types.ReadingData{Temperature: temp, Humidity: hum},
	}
}

func fixedAggregator(store RangeStore, now time.Time) *Aggregator {
	a := NewAggregator(store)
	a.now = func() time.Time { return now }
	return a
}

func TestHourlyAveragesWindowSkew(t *testing.T) {
	store := &fakeRangeStore{}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := fixedAggregator(store, now).HourlyAverages(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, now.Add(-24*time.Hour), store.lastFrom)
	assert.Equal(t, now.Add(7*time.Hour), store.lastTo, "window extends 7h past now")
}

func TestHourlyAveragesGroupingAndRounding(t *testing.T) {
	deviceID := uuid.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	store := &fakeRangeStore{readings: []types.TelemetryReading{
		reading(deviceID, now.Add(-2*time.Hour), 20.0, 40.0),
		reading(deviceID, now.Add(-2*time.Hour).Add(10*time.Minute), 21.0, 41.0),
		reading(deviceID, now.Add(-2*time.Hour).Add(20*time.Minute), 22.1, 42.0),
		reading(deviceID, now.Add(-1*time.Hour), 25.0, 50.0),
		// Another device in the same hours must not bleed in
		reading(uuid.New(), now.Add(-1*time.Hour), 99.0, 99.0),
	}}

	groups, err := fixedAggregator(store, now).HourlyAverages(context.Background(), deviceID)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), groups[0].Hour)
	assert.Equal(t, 21.03, groups[0].Temperature, "mean of 20.0, 21.0, 22.1 rounded to 2 decimals")
	assert.Equal(t, 41.0, groups[0].Humidity)
	assert.Equal(t, 3, groups[0].Count)

	assert.Equal(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC), groups[1].Hour)
	assert.Equal(t, 25.0, groups[1].Temperature)
	assert.Equal(t, 1, groups[1].Count)
}

func TestHourlyAveragesAscendingNoDuplicates(t *testing.T) {
	deviceID := uuid.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	store := &fakeRangeStore{}
	for h := 23; h >= 0; h-- {
		store.readings = append(store.readings,
			reading(deviceID, now.Add(-time.Duration(h)*time.Hour), float64(h), 50))
	}

	groups, err := fixedAggregator(store, now).HourlyAverages(context.Background(), deviceID)
	require.NoError(t, err)
	require.Len(t, groups, 24)

	seen := make(map[time.Time]bool)
	for i := 1; i < len(groups); i++ {
		assert.True(t, groups[i-1].Hour.Before(groups[i].Hour), "groups must ascend strictly")
	}
	for _, g := range groups {
		assert.False(t, seen[g.Hour], "duplicate hour key %v", g.Hour)
		seen[g.Hour] = true
	}
}

func TestHourlyAveragesIdempotent(t *testing.T) {
	deviceID := uuid.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeRangeStore{readings: []types.TelemetryReading{
		reading(deviceID, now.Add(-3*time.Hour), 19.5, 44.4),
		reading(deviceID, now.Add(-2*time.Hour), 20.5, 45.5),
	}}

	agg := fixedAggregator(store, now)
	first, err := agg.HourlyAverages(context.Background(), deviceID)
	require.NoError(t, err)
	second, err := agg.HourlyAverages(context.Background(), deviceID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHourlyAveragesEmptyWindow(t *testing.T) {
	store := &fakeRangeStore{}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	groups, err := fixedAggregator(store, now).HourlyAverages(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, groups)
}
