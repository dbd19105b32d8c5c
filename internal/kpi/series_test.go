package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

func TestBuildSeriesFillsMissingDays(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC) }
	dr := models.NewDateRange(day(1), day(7))
	rows := []models.MetricRow{
		{Date: day(2), Impressions: models.Float(100)},
		{Date: day(4), Impressions: models.Float(200)},
		{Date: day(7), Impressions: models.Float(300)},
	}

	got := BuildSeries(rows, []models.KPIType{models.KPIImpressions}, dr, models.TimeRange7d)
	require.Len(t, got, 1)
	series := got[0].Series
	require.Len(t, series, 7)

	zeros := 0
	for i, p := range series {
		assert.Equal(t, day(i+1).Format(models.DateLayout), p.Date)
		if p.Value == 0 {
			zeros++
		}
	}
	assert.Equal(t, 4, zeros)
	assert.Equal(t, 200.0, series[3].Value)
	assert.Equal(t, models.TimeRange7d, got[0].TimeRange)
}

func TestBuildSeriesLengthIgnoresRowCount(t *testing.T) {
	start := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	dr := models.NewDateRange(start, start.AddDate(0, 0, 29))
	rows := []models.MetricRow{
		{Date: start.AddDate(0, 0, -3), Clicks: models.Float(1)}, // before the range
		{Date: start.AddDate(0, 0, 45), Clicks: models.Float(1)}, // after the range
	}
	for _, id := range [][]models.KPIType{nil, {models.KPICTR}, models.KPITypes} {
		for _, h := range BuildSeries(rows, id, dr, models.TimeRange30d) {
			assert.Len(t, h.Series, 30)
			for _, p := range h.Series {
				assert.Zero(t, p.Value)
			}
		}
	}
}

func TestBuildSeriesUsesDailyRatios(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC) }
	dr := models.NewDateRange(day(1), day(2))
	rows := []models.MetricRow{
		{Date: day(1), Clicks: models.Float(5), Impressions: models.Float(100)},
		{Date: day(2), Clicks: models.Float(1), Impressions: models.Float(400)},
	}
	got := BuildSeries(rows, []models.KPIType{models.KPICTR}, dr, models.TimeRange3d)
	assert.InDelta(t, 5, got[0].Series[0].Value, 1e-9)
	assert.InDelta(t, 0.25, got[0].Series[1].Value, 1e-9)
}

func TestBuildSeriesLastRowOfADayWins(t *testing.T) {
	d := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	dr := models.NewDateRange(d, d)
	rows := []models.MetricRow{
		{Date: d, Conversions: models.Float(2)},
		{Date: d.Add(5 * time.Hour), Conversions: models.Float(3)},
	}
	got := BuildSeries(rows, []models.KPIType{models.KPIConversions}, dr, models.TimeRange24h)
	assert.Equal(t, 3.0, got[0].Series[0].Value)
}
