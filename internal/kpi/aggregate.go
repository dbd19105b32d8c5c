package kpi

import (
	"fmt"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

const (
	microsPerUnit = 1_000_000

	// Google Ads reports no subscriber metric; a fixed share of all
	// conversions stands in for it.
	subscriberConversionShare = 0.05
)

// Totals is the field-wise sum of a set of metric rows. It is the only place
// where absent row fields are turned into zeros.
type Totals struct {
	Clicks                 float64
	Impressions            float64
	CostMicros             float64
	Conversions            float64
	ConversionValue        float64
	VideoViews             float64
	VideoQuartileP100Rate  float64
	AverageVideoDuration   float64
	SearchImpressionShare  float64
	HistoricalQualityScore float64
	Interactions           float64
	AllConversions         float64

	// QualityScoreRows counts rows that reported a quality score.
	QualityScoreRows int
}

// AddRow folds one row into t.
func (t *Totals) AddRow(r models.MetricRow) {
	t.Clicks += models.Value(r.Clicks)
	t.Impressions += models.Value(r.Impressions)
	t.CostMicros += models.Value(r.CostMicros)
	t.Conversions += models.Value(r.Conversions)
	t.ConversionValue += models.Value(r.ConversionValue)
	t.VideoViews += models.Value(r.VideoViews)
	t.VideoQuartileP100Rate += models.Value(r.VideoQuartileP100Rate)
	t.AverageVideoDuration += models.Value(r.AverageVideoDuration)
	t.SearchImpressionShare += models.Value(r.SearchImpressionShare)
	t.Interactions += models.Value(r.Interactions)
	t.AllConversions += models.Value(r.AllConversions)
	if r.HistoricalQualityScore != nil {
		t.HistoricalQualityScore += *r.HistoricalQualityScore
		t.QualityScoreRows++
	}
}

// Add returns the field-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Clicks:                 t.Clicks + o.Clicks,
		Impressions:            t.Impressions + o.Impressions,
		CostMicros:             t.CostMicros + o.CostMicros,
		Conversions:            t.Conversions + o.Conversions,
		ConversionValue:        t.ConversionValue + o.ConversionValue,
		VideoViews:             t.VideoViews + o.VideoViews,
		VideoQuartileP100Rate:  t.VideoQuartileP100Rate + o.VideoQuartileP100Rate,
		AverageVideoDuration:   t.AverageVideoDuration + o.AverageVideoDuration,
		SearchImpressionShare:  t.SearchImpressionShare + o.SearchImpressionShare,
		HistoricalQualityScore: t.HistoricalQualityScore + o.HistoricalQualityScore,
		Interactions:           t.Interactions + o.Interactions,
		AllConversions:         t.AllConversions + o.AllConversions,
		QualityScoreRows:       t.QualityScoreRows + o.QualityScoreRows,
	}
}

// Cost returns spend in currency units.
func (t Totals) Cost() float64 { return t.CostMicros / microsPerUnit }

// Sum totals every row.
func Sum(rows []models.MetricRow) Totals {
	var t Totals
	for _, r := range rows {
		t.AddRow(r)
	}
	return t
}

// Derive computes one KPI from a totals record. Ratios are always taken from
// summed numerators and denominators and are 0 whenever the denominator is 0.
func Derive(id models.KPIType, t Totals) float64 {
	switch id {
	case models.KPIROAS:
		return safeDiv(t.ConversionValue*microsPerUnit, t.CostMicros)
	case models.KPIConversions:
		return t.Conversions
	case models.KPIConversionValue:
		return t.ConversionValue
	case models.KPICPA:
		return safeDiv(t.Cost(), t.Conversions)
	case models.KPIConversionRate:
		return safeDiv(t.Conversions, t.Clicks) * 100
	case models.KPICTR:
		return safeDiv(t.Clicks, t.Impressions) * 100
	case models.KPICost:
		return t.Cost()
	case models.KPICPV:
		return safeDiv(t.Cost(), t.VideoViews)
	case models.KPIViews:
		return t.VideoViews
	case models.KPIViewRate:
		return safeDiv(t.VideoViews, t.Impressions) * 100
	case models.KPIWatchTime:
		// Approximation: views x average duration x completion rate.
		return t.VideoViews * t.AverageVideoDuration * t.VideoQuartileP100Rate
	case models.KPISubscribersGained:
		return t.AllConversions * subscriberConversionShare
	case models.KPICPC:
		return safeDiv(t.Cost(), t.Clicks)
	case models.KPIImpressionShare:
		return t.SearchImpressionShare * 100
	case models.KPIQualityScore:
		return safeDiv(t.HistoricalQualityScore, float64(t.QualityScoreRows))
	case models.KPIImpressions:
		return t.Impressions
	case models.KPIInteractions:
		return t.Interactions
	}
	panic(fmt.Sprintf("kpi: no formula for KPI %q", id))
}

// Aggregate sums rows and derives each requested KPI, in the order requested.
func Aggregate(rows []models.MetricRow, ids []models.KPIType, tr models.TimeRange) []models.KPIDatum {
	return AggregateTotals(Sum(rows), ids, tr)
}

// AggregateTotals derives each requested KPI from pre-summed totals.
func AggregateTotals(t Totals, ids []models.KPIType, tr models.TimeRange) []models.KPIDatum {
	out := make([]models.KPIDatum, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.KPIDatum{
			Type:      id,
			Value:     Derive(id, t),
			TimeRange: tr,
		})
	}
	return out
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
