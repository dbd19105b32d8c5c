// Package kpi turns raw daily ad-platform metric rows into normalized KPI
// values, day-by-day KPI series and period-over-period comparisons.
//
// Everything in this package is pure: no I/O, no clocks, no shared state.
package kpi

import (
	"fmt"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// Format is how a KPI value is displayed.
type Format string

const (
	FormatNumber     Format = "number"
	FormatPercentage Format = "percentage"
	FormatCurrency   Format = "currency"
	FormatDuration   Format = "duration"
	FormatMultiplier Format = "x"
)

// Polarity says which direction of change is desirable for a KPI.
type Polarity string

const (
	IncreaseIsGood Polarity = "up-good"
	DecreaseIsGood Polarity = "down-good"
)

// Aggregation is how a KPI behaves across periods.
type Aggregation string

const (
	AggregationSum     Aggregation = "sum"
	AggregationAverage Aggregation = "average"
	AggregationLast    Aggregation = "last"
)

// Field is a raw metric as named in the Google Ads query language.
type Field string

const (
	FieldClicks                 Field = "metrics.clicks"
	FieldImpressions            Field = "metrics.impressions"
	FieldCostMicros             Field = "metrics.cost_micros"
	FieldConversions            Field = "metrics.conversions"
	FieldConversionValue        Field = "metrics.conversions_value"
	FieldVideoViews             Field = "metrics.video_views"
	FieldVideoQuartileP100Rate  Field = "metrics.video_quartile_p100_rate"
	FieldAverageVideoDuration   Field = "metrics.average_video_duration"
	FieldSearchImpressionShare  Field = "metrics.search_impression_share"
	FieldHistoricalQualityScore Field = "metrics.historical_quality_score"
	FieldInteractions           Field = "metrics.interactions"
	FieldAllConversions         Field = "metrics.all_conversions"
)

// Fields lists every raw field in canonical projection order.
var Fields = []Field{
	FieldClicks, FieldImpressions, FieldCostMicros, FieldConversions,
	FieldConversionValue, FieldVideoViews, FieldVideoQuartileP100Rate,
	FieldAverageVideoDuration, FieldSearchImpressionShare,
	FieldHistoricalQualityScore, FieldInteractions, FieldAllConversions,
}

// Entry describes one KPI: how it is shown and which raw fields it needs.
type Entry struct {
	Type        models.KPIType `json:"type"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Format      Format         `json:"format"`
	Polarity    Polarity       `json:"polarity"`
	Aggregation Aggregation    `json:"aggregation"`
	Benchmark   *float64       `json:"benchmark,omitempty"`
	Fields      []Field        `json:"fields"`
}

func benchmark(v float64) *float64 { return &v }

var catalog = map[models.KPIType]Entry{
	models.KPIROAS: {
		Label: "ROAS", Description: "Return on ad spend",
		Format: FormatMultiplier, Polarity: IncreaseIsGood, Aggregation: AggregationAverage,
		Benchmark: benchmark(3.0),
		Fields:    []Field{FieldConversionValue, FieldCostMicros},
	},
	models.KPIConversions: {
		Label: "Conversions", Description: "Total number of conversions",
		Format: FormatNumber, Polarity: IncreaseIsGood, Aggregation: AggregationSum,
		Fields: []Field{FieldConversions},
	},
	models.KPIConversionValue: {
		Label: "Conv. value", Description: "Total value of conversions",
		Format: FormatCurrency, Polarity: IncreaseIsGood, Aggregation: AggregationSum,
		Fields: []Field{FieldConversionValue},
	},
	models.KPICPA: {
		Label: "CPA", Description: "Cost per acquisition",
		Format: FormatCurrency, Polarity: DecreaseIsGood, Aggregation: AggregationAverage,
		Fields: []Field{FieldConversions, FieldCostMicros},
	},
	models.KPIConversionRate: {
		Label: "Conv. rate", Description: "Conversions per click",
		Format: FormatPercentage, Polarity: IncreaseIsGood, Aggregation: AggregationAverage,
		Fields: []Field{FieldConversions, FieldClicks},
	},
	models.KPICTR: {
		Label: "CTR", Description: "Click-through rate",
		Format: FormatPercentage, Polarity: IncreaseIsGood, Aggregation: AggregationAverage,
		Fields: []Field{FieldClicks, FieldImpressions},
	},
	models.KPICost: {
		Label: "Cost", Description: "Total spend",
		Format: FormatCurrency, Polarity: DecreaseIsGood, Aggregation: AggregationSum,
		Fields: []Field{FieldCostMicros},
	},
	models.KPICPV: {
		Label: "CPV", Description: "Cost per view",
		Format: FormatCurrency, Polarity: DecreaseIsGood, Aggregation: AggregationAverage,
		Fields: []Field{FieldVideoViews, FieldCostMicros},
	},
	models.KPIViews: {
		Label: "Views", Description: "Total video views",
		Format: FormatNumber, Polarity: IncreaseIsGood, Aggregation: AggregationSum,
		Fields: []Field{FieldVideoViews},
	},
	models.KPIViewRate: {
		Label: "View rate", Description: "Views per impression",
		Format: FormatPercentage, Polarity: IncreaseIsGood, Aggregation: AggregationAverage,
		Fields: []Field{FieldVideoViews, FieldImpressions},
	},
	models.KPIWatchTime: {
		Label: "Watch time", Description: "Estimated total watch time",
		Format: FormatDuration, Polarity: IncreaseIsGood, Aggregation: AggregationSum,
		Fields: []Field{FieldVideoViews, FieldAverageVideoDuration, FieldVideoQuartileP100Rate},
	},
	models.KPISubscribersGained: {
		Label: "Subscribers", Description: "Estimated new subscribers",
		Format: FormatNumber, Polarity: IncreaseIsGood, Aggregation: AggregationSum,
		Fields: []Field{FieldAllConversions},
	},
	models.KPICPC: {
		Label: "CPC", Description: "Cost per click",
		Format: FormatCurrency, Polarity: DecreaseIsGood, Aggregation: AggregationAverage,
		Fields: []Field{FieldClicks, FieldCostMicros},
	},
	models.KPIImpressionShare: {
		Label: "Impression share", Description: "Share of eligible impressions received",
		Format: FormatPercentage, Polarity: IncreaseIsGood, Aggregation: AggregationAverage,
		Fields: []Field{FieldSearchImpressionShare},
	},
	models.KPIQualityScore: {
		Label: "Quality score", Description: "Ad and keyword quality",
		Format: FormatNumber, Polarity: IncreaseIsGood, Aggregation: AggregationAverage,
		Fields: []Field{FieldHistoricalQualityScore},
	},
	models.KPIImpressions: {
		Label: "Impressions", Description: "Total number of impressions",
		Format: FormatNumber, Polarity: IncreaseIsGood, Aggregation: AggregationSum,
		Fields: []Field{FieldImpressions},
	},
	models.KPIInteractions: {
		Label: "Interactions", Description: "Total number of interactions",
		Format: FormatNumber, Polarity: IncreaseIsGood, Aggregation: AggregationSum,
		Fields: []Field{FieldInteractions},
	},
}

var campaignKPIs = map[models.CampaignType][]models.KPIType{
	models.CampaignTypePerformanceMax: {
		models.KPIROAS, models.KPIConversions, models.KPIConversionValue, models.KPICPA,
		models.KPIConversionRate, models.KPICTR, models.KPICost,
	},
	models.CampaignTypeVideo: {
		models.KPICPV, models.KPIViews, models.KPIViewRate, models.KPIWatchTime,
		models.KPICTR, models.KPISubscribersGained, models.KPIConversions,
	},
	models.CampaignTypeSearch: {
		models.KPICPC, models.KPICTR, models.KPIConversions, models.KPIImpressionShare,
		models.KPIQualityScore,
	},
	models.CampaignTypeDisplay: {
		models.KPIImpressions, models.KPICTR, models.KPIInteractions,
		models.KPIConversionRate, models.KPICPA,
	},
}

// Lookup returns the catalog entry for id.
func Lookup(id models.KPIType) (Entry, bool) {
	e, ok := catalog[id]
	if !ok {
		return Entry{}, false
	}
	e.Type = id
	return e, true
}

// MustLookup is like Lookup but panics on an identifier outside the catalog.
func MustLookup(id models.KPIType) Entry {
	e, ok := Lookup(id)
	if !ok {
		panic(fmt.Sprintf("kpi: unknown KPI %q", id))
	}
	return e
}

// Catalog returns every entry in models.KPITypes order.
func Catalog() []Entry {
	out := make([]Entry, 0, len(models.KPITypes))
	for _, id := range models.KPITypes {
		out = append(out, MustLookup(id))
	}
	return out
}

// KPIsFor returns the ordered KPI set for a campaign type. The closed set of
// campaign types is validated at the boundary; an unknown type panics.
func KPIsFor(t models.CampaignType) []models.KPIType {
	ids, ok := campaignKPIs[t]
	if !ok {
		panic(fmt.Sprintf("kpi: unknown campaign type %q", t))
	}
	return append([]models.KPIType(nil), ids...)
}

// FieldsFor returns the de-duplicated union of raw fields needed by ids, in
// canonical Fields order regardless of the order of ids.
func FieldsFor(ids []models.KPIType) []Field {
	need := make(map[Field]struct{})
	for _, id := range ids {
		for _, f := range MustLookup(id).Fields {
			need[f] = struct{}{}
		}
	}
	out := make([]Field, 0, len(need))
	for _, f := range Fields {
		if _, ok := need[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// IsPositiveChange reports whether a change is desirable for the KPI.
func IsPositiveChange(change float64, id models.KPIType) bool {
	if MustLookup(id).Polarity == DecreaseIsGood {
		return change < 0
	}
	return change > 0
}
