// Package synthetic generates deterministic demo campaigns and daily metric
// rows for running the dashboard without ad-platform credentials.
package synthetic

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/metrics"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

var demoCampaigns = []models.Campaign{
	{ID: "1001", Name: "YouTube Campaign - Artist XYZ", Type: models.CampaignTypeVideo, Status: models.CampaignStatusEnabled, StartDate: "2025-01-15"},
	{ID: "1002", Name: "Performance Max - Label ABC", Type: models.CampaignTypePerformanceMax, Status: models.CampaignStatusEnabled, StartDate: "2025-01-15"},
	{ID: "1003", Name: "Search - Album Sales 2024", Type: models.CampaignTypeSearch, Status: models.CampaignStatusEnabled, StartDate: "2025-01-15"},
	{ID: "1004", Name: "Display - EP Promo", Type: models.CampaignTypeDisplay, Status: models.CampaignStatusPaused, StartDate: "2025-01-15"},
	{ID: "1005", Name: "YouTube - Autumn Lives", Type: models.CampaignTypeVideo, Status: models.CampaignStatusEnabled, StartDate: "2025-01-15"},
}

// profile is the typical daily delivery of a campaign type.
type profile struct {
	impressions float64
	ctr         float64
	cpc         float64
	convRate    float64
	orderValue  float64
	viewRate    float64
}

var profiles = map[models.CampaignType]profile{
	models.CampaignTypeVideo:          {impressions: 20000, ctr: 0.008, cpc: 0.15, convRate: 0.01, orderValue: 12, viewRate: 0.3},
	models.CampaignTypePerformanceMax: {impressions: 15000, ctr: 0.025, cpc: 0.6, convRate: 0.03, orderValue: 35},
	models.CampaignTypeSearch:         {impressions: 4000, ctr: 0.06, cpc: 1.2, convRate: 0.05, orderValue: 30},
	models.CampaignTypeDisplay:        {impressions: 30000, ctr: 0.004, cpc: 0.3, convRate: 0.01, orderValue: 20},
}

// Source serves demo data. The row for a given campaign and day is always
// the same for a given seed, whatever window it is requested in.
type Source struct {
	seed      int64
	campaigns []models.Campaign
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewSource creates a synthetic source. m may be nil.
func NewSource(seed int64, logger *zap.Logger, m *metrics.Metrics) *Source {
	return &Source{
		seed:      seed,
		campaigns: demoCampaigns,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *Source) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.Campaign(nil), s.campaigns...), nil
}

func (s *Source) CampaignDetails(ctx context.Context, id string) (*models.CampaignDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := s.campaign(id)
	if !ok {
		return nil, nil
	}
	return &models.CampaignDetails{
		Campaign:        c,
		Budget:          &models.Budget{Amount: 100, Type: models.BudgetTypeDaily},
		BiddingStrategy: "MAXIMIZE_CONVERSIONS",
		AdGroups:        3,
		LastModified:    s.now().UTC(),
	}, nil
}

// MetricRows returns one row per day of q.Range with only q's fields set.
// Unknown campaigns have no rows.
func (s *Source) MetricRows(ctx context.Context, q kpi.Query) ([]models.MetricRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := s.campaign(q.CampaignID)
	if !ok {
		return nil, nil
	}

	dates := q.Range.Dates()
	rows := make([]models.MetricRow, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, s.row(c, d).project(q.CampaignID, d, q.Fields))
	}
	s.metrics.RecordRows("synthetic", len(rows))
	s.logger.Debug("synthetic rows generated",
		zap.String("campaign_id", q.CampaignID),
		zap.String("range", q.Range.String()),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

func (s *Source) campaign(id string) (models.Campaign, bool) {
	for _, c := range s.campaigns {
		if c.ID == id {
			return c, true
		}
	}
	return models.Campaign{}, false
}

// dayValues holds every raw field for one day before projection.
type dayValues map[kpi.Field]float64

func (s *Source) row(c models.Campaign, day time.Time) dayValues {
	rng := rand.New(rand.NewSource(s.dayseed(c.ID, day)))
	p := profiles[c.Type]
	jitter := func() float64 { return 0.8 + 0.4*rng.Float64() }

	// Draw order is fixed so values never depend on the projection.
	impressions := math.Round(p.impressions * (0.7 + 0.6*rng.Float64()))
	clicks := math.Round(impressions * p.ctr * jitter())
	cost := clicks * p.cpc * jitter()
	conversions := math.Round(clicks * p.convRate * jitter())
	value := conversions * p.orderValue * jitter()
	views := math.Round(impressions * p.viewRate * jitter())
	completion := 0.2 + 0.2*rng.Float64()
	duration := 20 + 20*rng.Float64()
	share := 0.4 + 0.3*rng.Float64()
	quality := float64(5 + rng.Intn(5))
	interactions := clicks + math.Round(views*0.1*jitter())

	v := dayValues{
		kpi.FieldImpressions:     impressions,
		kpi.FieldClicks:          clicks,
		kpi.FieldCostMicros:      math.Round(cost * 1_000_000),
		kpi.FieldConversions:     conversions,
		kpi.FieldConversionValue: math.Round(value*100) / 100,
		kpi.FieldInteractions:    interactions,
		kpi.FieldAllConversions:  math.Round(conversions * 1.2),
	}
	if c.Type == models.CampaignTypeVideo {
		v[kpi.FieldVideoViews] = views
		v[kpi.FieldVideoQuartileP100Rate] = completion
		v[kpi.FieldAverageVideoDuration] = duration
	}
	if c.Type == models.CampaignTypeSearch {
		v[kpi.FieldSearchImpressionShare] = share
		v[kpi.FieldHistoricalQualityScore] = quality
	}
	return v
}

func (v dayValues) project(campaignID string, day time.Time, fields []kpi.Field) models.MetricRow {
	r := models.MetricRow{CampaignID: campaignID, Date: models.Day(day)}
	for _, f := range fields {
		x, ok := v[f]
		if !ok {
			continue
		}
		p := models.Float(x)
		switch f {
		case kpi.FieldClicks:
			r.Clicks = p
		case kpi.FieldImpressions:
			r.Impressions = p
		case kpi.FieldCostMicros:
			r.CostMicros = p
		case kpi.FieldConversions:
			r.Conversions = p
		case kpi.FieldConversionValue:
			r.ConversionValue = p
		case kpi.FieldVideoViews:
			r.VideoViews = p
		case kpi.FieldVideoQuartileP100Rate:
			r.VideoQuartileP100Rate = p
		case kpi.FieldAverageVideoDuration:
			r.AverageVideoDuration = p
		case kpi.FieldSearchImpressionShare:
			r.SearchImpressionShare = p
		case kpi.FieldHistoricalQualityScore:
			r.HistoricalQualityScore = p
		case kpi.FieldInteractions:
			r.Interactions = p
		case kpi.FieldAllConversions:
			r.AllConversions = p
		}
	}
	return r
}

func (s *Source) dayseed(campaignID string, day time.Time) int64 {
	h := fnv.New64a()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(s.seed))
	h.Write(b[:])
	h.Write([]byte(campaignID))
	h.Write([]byte(models.Day(day).Format(models.DateLayout)))
	return int64(h.Sum64())
}
