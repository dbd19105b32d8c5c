package kpi

import (
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// BuildSeries produces one point per calendar day of dr for every KPI, using
// the same formulas as Aggregate applied to that single day's values. Days
// without rows are 0; rows outside dr are ignored. Sources deliver one row
// per day; if several rows share a day the last one wins.
func BuildSeries(rows []models.MetricRow, ids []models.KPIType, dr models.DateRange, tr models.TimeRange) []models.KPIHistory {
	byDay := make(map[string]Totals, len(rows))
	for _, r := range rows {
		if !dr.Contains(r.Date) {
			continue
		}
		var t Totals
		t.AddRow(r)
		byDay[models.Day(r.Date).Format(models.DateLayout)] = t
	}

	dates := dr.Dates()
	out := make([]models.KPIHistory, 0, len(ids))
	for _, id := range ids {
		series := make([]models.HistoryPoint, 0, len(dates))
		for _, d := range dates {
			key := d.Format(models.DateLayout)
			var v float64
			if t, ok := byDay[key]; ok {
				v = Derive(id, t)
			}
			series = append(series, models.HistoryPoint{Date: key, Value: v})
		}
		out = append(out, models.KPIHistory{Type: id, TimeRange: tr, Series: series})
	}
	return out
}
