package kpi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

func TestFormatExamples(t *testing.T) {
	assert.Equal(t, "1234.57", FormatKPI(1234.5678, models.KPIImpressions))
	assert.Equal(t, "12.35%", FormatKPI(12.345, models.KPICTR))
	assert.Equal(t, "€10.00", FormatKPI(10, models.KPICPA))
	assert.Equal(t, "-€3.50", FormatKPI(-3.5, models.KPICost))
	assert.Equal(t, "3.25x", FormatKPI(3.25, models.KPIROAS))
	assert.Equal(t, "1h 2m 3s", FormatKPI(3723, models.KPIWatchTime))
	assert.Equal(t, "0.00%", FormatKPI(math.NaN(), models.KPIViewRate))
}

func TestFormatParseRoundTrip(t *testing.T) {
	values := []float64{0, 1, 0.004, 12.345678, 99.999, 1234567.891, -42.4242}
	for _, id := range models.KPITypes {
		f := MustLookup(id).Format
		for _, v := range values {
			s := FormatKPI(v, id)
			got, err := Parse(s, id)
			require.NoError(t, err, "%s %q", id, s)

			tolerance := 0.005 + 1e-9
			if f == FormatDuration {
				tolerance = 0.5 + 1e-9
			}
			assert.InDelta(t, v, got, tolerance, "%s %q", id, s)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("abc", models.KPICost)
	assert.Error(t, err)
	_, err = Parse("1h", models.KPIWatchTime)
	assert.Error(t, err)
}
