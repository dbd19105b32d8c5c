package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

func TestCatalogCoversEveryKPI(t *testing.T) {
	entries := Catalog()
	require.Len(t, entries, len(models.KPITypes))
	for i, e := range entries {
		assert.Equal(t, models.KPITypes[i], e.Type)
		assert.NotEmpty(t, e.Label, e.Type)
		assert.NotEmpty(t, e.Fields, e.Type)
	}
}

func TestKPIsForVideo(t *testing.T) {
	got := KPIsFor(models.CampaignTypeVideo)
	want := []models.KPIType{
		models.KPICPV, models.KPIViews, models.KPIViewRate, models.KPIWatchTime,
		models.KPICTR, models.KPISubscribersGained, models.KPIConversions,
	}
	assert.Equal(t, want, got)
}

func TestKPIsForEveryCampaignType(t *testing.T) {
	for _, ct := range []models.CampaignType{
		models.CampaignTypePerformanceMax, models.CampaignTypeVideo,
		models.CampaignTypeSearch, models.CampaignTypeDisplay,
	} {
		ids := KPIsFor(ct)
		assert.NotEmpty(t, ids, ct)
		for _, id := range ids {
			_, ok := Lookup(id)
			assert.True(t, ok, "%s -> %s", ct, id)
		}
	}
}

func TestKPIsForReturnsCopy(t *testing.T) {
	ids := KPIsFor(models.CampaignTypeSearch)
	ids[0] = models.KPICost
	assert.Equal(t, models.KPICPC, KPIsFor(models.CampaignTypeSearch)[0])
}

func TestKPIsForUnknownTypePanics(t *testing.T) {
	assert.Panics(t, func() { KPIsFor(models.CampaignType("SHOPPING")) })
}

func TestFieldsForDeduplicatesAndIgnoresOrder(t *testing.T) {
	a := FieldsFor([]models.KPIType{models.KPICTR, models.KPICPC, models.KPICost})
	b := FieldsFor([]models.KPIType{models.KPICost, models.KPICTR, models.KPICPC})
	assert.Equal(t, a, b)
	assert.Equal(t, []Field{FieldClicks, FieldImpressions, FieldCostMicros}, a)
}

func TestFieldsForEmpty(t *testing.T) {
	assert.Empty(t, FieldsFor(nil))
}

func TestIsPositiveChange(t *testing.T) {
	assert.True(t, IsPositiveChange(5, models.KPIConversions))
	assert.False(t, IsPositiveChange(-5, models.KPIConversions))
	assert.True(t, IsPositiveChange(-1, models.KPICPA))
	assert.False(t, IsPositiveChange(1, models.KPICost))
	assert.False(t, IsPositiveChange(0, models.KPICost))
}
