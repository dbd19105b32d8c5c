package googleads

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// Number decodes API numbers, which arrive as JSON strings for int64 fields
// and as JSON numbers for doubles.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", b, err)
	}
	*n = Number(v)
	return nil
}

func (n *Number) ptr() *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}

// Row is one GAQL search result. Only the resources the dashboard queries are
// decoded.
type Row struct {
	Campaign       *CampaignResource `json:"campaign"`
	CampaignBudget *BudgetResource   `json:"campaignBudget"`
	AdGroup        *AdGroupResource  `json:"adGroup"`
	Metrics        *MetricsResource  `json:"metrics"`
	Segments       *SegmentsResource `json:"segments"`
}

type CampaignResource struct {
	ResourceName              string `json:"resourceName"`
	ID                        string `json:"id"`
	Name                      string `json:"name"`
	Status                    string `json:"status"`
	AdvertisingChannelType    string `json:"advertisingChannelType"`
	AdvertisingChannelSubType string `json:"advertisingChannelSubType"`
	StartDate                 string `json:"startDate"`
	EndDate                   string `json:"endDate"`
	BiddingStrategyType       string `json:"biddingStrategyType"`
	TargetROAS                *struct {
		TargetROAS Number `json:"targetRoas"`
	} `json:"targetRoas"`
	TargetCPA *struct {
		TargetCPAMicros Number `json:"targetCpaMicros"`
	} `json:"targetCpa"`
}

type BudgetResource struct {
	AmountMicros      *Number `json:"amountMicros"`
	TotalAmountMicros *Number `json:"totalAmountMicros"`
	Period            string  `json:"period"`
}

type AdGroupResource struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type MetricsResource struct {
	Clicks                 *Number `json:"clicks"`
	Impressions            *Number `json:"impressions"`
	CostMicros             *Number `json:"costMicros"`
	Conversions            *Number `json:"conversions"`
	ConversionsValue       *Number `json:"conversionsValue"`
	VideoViews             *Number `json:"videoViews"`
	VideoQuartileP100Rate  *Number `json:"videoQuartileP100Rate"`
	AverageVideoDuration   *Number `json:"averageVideoDuration"`
	SearchImpressionShare  *Number `json:"searchImpressionShare"`
	HistoricalQualityScore *Number `json:"historicalQualityScore"`
	Interactions           *Number `json:"interactions"`
	AllConversions         *Number `json:"allConversions"`
}

type SegmentsResource struct {
	Date string `json:"date"`
}

// metricRow converts a report row. Metrics the API omitted stay nil.
func (r Row) metricRow(campaignID string) (models.MetricRow, error) {
	out := models.MetricRow{CampaignID: campaignID}
	if r.Campaign != nil && r.Campaign.ID != "" {
		out.CampaignID = r.Campaign.ID
	}
	if r.Segments == nil {
		return out, fmt.Errorf("row without segments.date")
	}
	d, err := time.Parse(models.DateLayout, r.Segments.Date)
	if err != nil {
		return out, fmt.Errorf("invalid segments.date: %w", err)
	}
	out.Date = d

	if m := r.Metrics; m != nil {
		out.Clicks = m.Clicks.ptr()
		out.Impressions = m.Impressions.ptr()
		out.CostMicros = m.CostMicros.ptr()
		out.Conversions = m.Conversions.ptr()
		out.ConversionValue = m.ConversionsValue.ptr()
		out.VideoViews = m.VideoViews.ptr()
		out.VideoQuartileP100Rate = m.VideoQuartileP100Rate.ptr()
		out.AverageVideoDuration = m.AverageVideoDuration.ptr()
		out.SearchImpressionShare = m.SearchImpressionShare.ptr()
		out.HistoricalQualityScore = m.HistoricalQualityScore.ptr()
		out.Interactions = m.Interactions.ptr()
		out.AllConversions = m.AllConversions.ptr()
	}
	return out, nil
}

func (c *CampaignResource) campaign() models.Campaign {
	return models.Campaign{
		ID:        c.ID,
		Name:      c.Name,
		Type:      models.ChannelCampaignType(c.AdvertisingChannelType, c.AdvertisingChannelSubType),
		Status:    models.CampaignStatus(c.Status),
		StartDate: c.StartDate,
	}
}
