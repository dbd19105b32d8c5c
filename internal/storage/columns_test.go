package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

func TestEveryFieldHasAColumn(t *testing.T) {
	for _, f := range kpi.Fields {
		assert.NotEmpty(t, metricColumns[f], f)
	}
	assert.Len(t, insertColumns(), len(kpi.Fields))
}

func TestSelectList(t *testing.T) {
	got := selectList([]kpi.Field{kpi.FieldClicks, kpi.FieldCostMicros})
	assert.Equal(t, "date, clicks, cost_micros", got)
}

func TestScanTargetsPointIntoRow(t *testing.T) {
	var row models.MetricRow
	targets := scanTargets(&row, []kpi.Field{kpi.FieldImpressions, kpi.FieldConversions})
	require.Len(t, targets, 3)

	*targets[0].(*time.Time) = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	*targets[1].(**float64) = models.Float(1000)
	*targets[2].(**float64) = models.Float(4)

	assert.Equal(t, "2025-03-01", row.Date.Format(models.DateLayout))
	assert.Equal(t, 1000.0, models.Value(row.Impressions))
	assert.Equal(t, 4.0, models.Value(row.Conversions))
	assert.Nil(t, row.Clicks)
}

func TestInsertValuesKeepsNulls(t *testing.T) {
	row := models.MetricRow{Clicks: models.Float(7)}
	values := insertValues(row)
	require.Len(t, values, len(kpi.Fields))

	assert.Equal(t, 7.0, *values[0].(*float64))
	for _, v := range values[1:] {
		assert.Nil(t, v.(*float64))
	}
}

func TestDateHelpers(t *testing.T) {
	assert.Equal(t, "", formatDate(nil))
	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("not-a-date"))

	d := parseDate("2025-01-15")
	require.NotNil(t, d)
	assert.Equal(t, "2025-01-15", formatDate(d))
}
