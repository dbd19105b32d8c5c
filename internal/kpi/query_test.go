package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

func TestBuildQueryMinimalProjection(t *testing.T) {
	dr := models.NewDateRange(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC))
	q := BuildQuery("123", KPIsFor(models.CampaignTypeSearch), dr)

	assert.Equal(t, []Field{
		FieldClicks, FieldImpressions, FieldCostMicros, FieldConversions,
		FieldSearchImpressionShare, FieldHistoricalQualityScore,
	}, q.Fields)
	assert.False(t, q.Has(FieldVideoViews))
	assert.Equal(t, "segments.date BETWEEN '2025-03-01' AND '2025-03-07'", q.DatePredicate())
}

func TestGAQLDeterministic(t *testing.T) {
	dr := models.NewDateRange(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	q1 := BuildQuery("42", []models.KPIType{models.KPICTR, models.KPICost}, dr)
	q2 := BuildQuery("42", []models.KPIType{models.KPICost, models.KPICTR}, dr)

	want := "SELECT campaign.id, segments.date, metrics.clicks, metrics.impressions, metrics.cost_micros" +
		" FROM campaign WHERE campaign.id = 42 AND segments.date BETWEEN '2025-03-01' AND '2025-03-01'" +
		" ORDER BY segments.date"
	assert.Equal(t, want, q1.GAQL())
	assert.Equal(t, q1.GAQL(), q2.GAQL())
}
