package storage

import (
	"strings"
	"time"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// metricColumns maps raw fields to warehouse columns. Both warehouses use the
// same column names.
var metricColumns = map[kpi.Field]string{
	kpi.FieldClicks:                 "clicks",
	kpi.FieldImpressions:            "impressions",
	kpi.FieldCostMicros:             "cost_micros",
	kpi.FieldConversions:            "conversions",
	kpi.FieldConversionValue:        "conversion_value",
	kpi.FieldVideoViews:             "video_views",
	kpi.FieldVideoQuartileP100Rate:  "video_quartile_p100_rate",
	kpi.FieldAverageVideoDuration:   "average_video_duration",
	kpi.FieldSearchImpressionShare:  "search_impression_share",
	kpi.FieldHistoricalQualityScore: "historical_quality_score",
	kpi.FieldInteractions:           "interactions",
	kpi.FieldAllConversions:         "all_conversions",
}

// selectList renders "date, col1, col2" for the projected fields.
func selectList(fields []kpi.Field) string {
	cols := make([]string, 0, len(fields)+1)
	cols = append(cols, "date")
	for _, f := range fields {
		cols = append(cols, metricColumns[f])
	}
	return strings.Join(cols, ", ")
}

// scanTargets returns Scan destinations matching selectList.
func scanTargets(r *models.MetricRow, fields []kpi.Field) []any {
	out := make([]any, 0, len(fields)+1)
	out = append(out, &r.Date)
	for _, f := range fields {
		out = append(out, fieldPtr(r, f))
	}
	return out
}

// insertValues returns every metric column value of r in kpi.Fields order.
func insertValues(r models.MetricRow) []any {
	out := make([]any, 0, len(kpi.Fields))
	for _, f := range kpi.Fields {
		out = append(out, *fieldPtr(&r, f))
	}
	return out
}

func insertColumns() []string {
	cols := make([]string, 0, len(kpi.Fields))
	for _, f := range kpi.Fields {
		cols = append(cols, metricColumns[f])
	}
	return cols
}

func fieldPtr(r *models.MetricRow, f kpi.Field) **float64 {
	switch f {
	case kpi.FieldClicks:
		return &r.Clicks
	case kpi.FieldImpressions:
		return &r.Impressions
	case kpi.FieldCostMicros:
		return &r.CostMicros
	case kpi.FieldConversions:
		return &r.Conversions
	case kpi.FieldConversionValue:
		return &r.ConversionValue
	case kpi.FieldVideoViews:
		return &r.VideoViews
	case kpi.FieldVideoQuartileP100Rate:
		return &r.VideoQuartileP100Rate
	case kpi.FieldAverageVideoDuration:
		return &r.AverageVideoDuration
	case kpi.FieldSearchImpressionShare:
		return &r.SearchImpressionShare
	case kpi.FieldHistoricalQualityScore:
		return &r.HistoricalQualityScore
	case kpi.FieldInteractions:
		return &r.Interactions
	case kpi.FieldAllConversions:
		return &r.AllConversions
	}
	panic("storage: no column for field " + string(f))
}

// formatDate renders a nullable DATE column.
func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

// parseDate is the inverse of formatDate.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
