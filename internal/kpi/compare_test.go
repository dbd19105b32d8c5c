package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

func datum(id models.KPIType, v float64) models.KPIDatum {
	return models.KPIDatum{Type: id, Value: v, TimeRange: models.TimeRange7d}
}

func TestMergeDecrease(t *testing.T) {
	got := Merge([]models.KPIDatum{datum(models.KPIViews, 150)}, []models.KPIDatum{datum(models.KPIViews, 200)})
	require.Len(t, got, 1)
	d := got[0]
	require.NotNil(t, d.PreviousValue)
	assert.Equal(t, 200.0, *d.PreviousValue)
	assert.Equal(t, -50.0, *d.Change)
	assert.Equal(t, -25.0, *d.ChangePercentage)
	assert.Equal(t, models.TrendDown, d.Trend)
}

func TestMergeZeroBaseline(t *testing.T) {
	got := Merge([]models.KPIDatum{datum(models.KPICost, 0)}, []models.KPIDatum{datum(models.KPICost, 0)})
	assert.Equal(t, 0.0, *got[0].ChangePercentage)
	assert.Equal(t, models.TrendStable, got[0].Trend)

	got = Merge([]models.KPIDatum{datum(models.KPICost, 12)}, []models.KPIDatum{datum(models.KPICost, 0)})
	assert.Equal(t, 100.0, *got[0].ChangePercentage)
	assert.Equal(t, models.TrendUp, got[0].Trend)
}

func TestMergeWithItselfIsStable(t *testing.T) {
	current := Aggregate([]models.MetricRow{{
		Clicks: models.Float(12), Impressions: models.Float(400), CostMicros: models.Float(9_000_000),
		Conversions: models.Float(3), VideoViews: models.Float(77),
	}}, models.KPITypes, models.TimeRange14d)

	for _, d := range Merge(current, current) {
		assert.Equal(t, 0.0, *d.Change, d.Type)
		assert.Equal(t, 0.0, *d.ChangePercentage, d.Type)
		assert.Equal(t, models.TrendStable, d.Trend, d.Type)
	}
}

func TestMergeMissingPreviousPassesThrough(t *testing.T) {
	current := []models.KPIDatum{datum(models.KPICTR, 3), datum(models.KPICPC, 0.4)}
	got := Merge(current, []models.KPIDatum{datum(models.KPICTR, 3.3)})
	require.Len(t, got, 2)
	assert.NotNil(t, got[0].PreviousValue)
	assert.Equal(t, current[1], got[1])
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	current := []models.KPIDatum{datum(models.KPICTR, 3)}
	_ = Merge(current, []models.KPIDatum{datum(models.KPICTR, 6)})
	assert.Nil(t, current[0].PreviousValue)
}

func TestTrendOfThreshold(t *testing.T) {
	assert.Equal(t, models.TrendStable, TrendOf(0.99))
	assert.Equal(t, models.TrendStable, TrendOf(-0.99))
	assert.Equal(t, models.TrendUp, TrendOf(1))
	assert.Equal(t, models.TrendDown, TrendOf(-1))
}
