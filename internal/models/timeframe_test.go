package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePeriodDays(t *testing.T) {
	// Wednesday
	now := time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC)

	p, err := ResolvePeriod(TimeframeToday, now, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), p.End)

	p, err = ResolvePeriod(TimeframeYesterday, now, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), p.End)
}

func TestResolvePeriodWeeksStartMonday(t *testing.T) {
	// Wednesday 2025-06-04; week starts Monday 2025-06-02
	now := time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC)

	p, err := ResolvePeriod(TimeframeThisWeek, now, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), p.End)

	p, err = ResolvePeriod(TimeframeLastWeek, now, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 26, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), p.End)
}

func TestResolvePeriodSundayBelongsToCurrentWeek(t *testing.T) {
	// Sunday 2025-06-08 still belongs to the week of Monday 2025-06-02
	now := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)

	p, err := ResolvePeriod(TimeframeThisWeek, now, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), p.Start)
}

func TestResolvePeriodMonths(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	p, err := ResolvePeriod(TimeframeThisMonth, now, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), p.End)

	p, err = ResolvePeriod(TimeframeLastMonth, now, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), p.End)
}

func TestResolvePeriodCustom(t *testing.T) {
	now := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	p, err := ResolvePeriod(TimeframeCustom, now, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, start, p.Start)
	assert.Equal(t, end, p.End)

	_, err = ResolvePeriod(TimeframeCustom, now, &start, nil)
	assert.Error(t, err)

	_, err = ResolvePeriod(TimeframeCustom, now, &end, &start)
	assert.Error(t, err)
}

func TestResolvePeriodRejectsUnknown(t *testing.T) {
	_, err := ResolvePeriod(Timeframe("fortnight"), time.Now(), nil, nil)
	assert.Error(t, err)
}
