package googleads

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/metrics"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

const (
	defaultDetailsCacheSize = 256
	defaultDetailsTTL       = 10 * time.Minute
	microsPerUnit           = 1_000_000
)

const listCampaignsQuery = `SELECT campaign.id, campaign.name, campaign.status, ` +
	`campaign.advertising_channel_type, campaign.advertising_channel_sub_type, campaign.start_date ` +
	`FROM campaign WHERE campaign.status != 'REMOVED' ORDER BY campaign.name`

const campaignDetailsQuery = `SELECT campaign.id, campaign.name, campaign.status, ` +
	`campaign.advertising_channel_type, campaign.advertising_channel_sub_type, ` +
	`campaign.start_date, campaign.end_date, campaign.bidding_strategy_type, ` +
	`campaign.target_roas.target_roas, campaign.target_cpa.target_cpa_micros, ` +
	`campaign_budget.amount_micros, campaign_budget.total_amount_micros, campaign_budget.period ` +
	`FROM campaign WHERE campaign.id = %s`

const adGroupsQuery = `SELECT ad_group.id FROM ad_group ` +
	`WHERE campaign.id = %s AND ad_group.status != 'REMOVED'`

type detailsEntry struct {
	details  *models.CampaignDetails
	storedAt time.Time
}

// Source serves campaigns and raw metric rows from the Google Ads API.
type Source struct {
	client  *Client
	logger  *zap.Logger
	metrics *metrics.Metrics

	cache *lru.Cache[string, detailsEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewSource wraps client. Campaign details are cached for ttl.
func NewSource(client *Client, cacheSize int, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *Source {
	if cacheSize <= 0 {
		cacheSize = defaultDetailsCacheSize
	}
	if ttl <= 0 {
		ttl = defaultDetailsTTL
	}
	// lru.New only errors on a non-positive size.
	cache, _ := lru.New[string, detailsEntry](cacheSize)
	return &Source{
		client:  client,
		logger:  logger,
		metrics: m,
		cache:   cache,
		ttl:     ttl,
		now:     time.Now,
	}
}

// ListCampaigns returns every non-removed campaign ordered by name.
func (s *Source) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	rows, err := s.client.Search(ctx, "list_campaigns", listCampaignsQuery)
	if err != nil {
		return nil, err
	}
	out := make([]models.Campaign, 0, len(rows))
	for _, r := range rows {
		if r.Campaign == nil {
			continue
		}
		out = append(out, r.Campaign.campaign())
	}
	return out, nil
}

// CampaignDetails returns settings for one campaign, or nil when it does not
// exist.
func (s *Source) CampaignDetails(ctx context.Context, id string) (*models.CampaignDetails, error) {
	if err := ValidateCampaignID(id); err != nil {
		return nil, err
	}

	e, ok := s.cache.Get(id)
	if ok && s.now().Sub(e.storedAt) < s.ttl {
		return copyDetails(e.details), nil
	}

	rows, err := s.client.Search(ctx, "campaign_details", fmt.Sprintf(campaignDetailsQuery, id))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].Campaign == nil {
		return nil, nil
	}

	adGroups, err := s.client.Search(ctx, "ad_groups", fmt.Sprintf(adGroupsQuery, id))
	if err != nil {
		return nil, err
	}

	d := buildDetails(rows[0], len(adGroups), s.now())

	s.cache.Add(id, detailsEntry{details: d, storedAt: s.now()})

	return copyDetails(d), nil
}

// MetricRows returns one row per day for q's campaign and date range.
func (s *Source) MetricRows(ctx context.Context, q kpi.Query) ([]models.MetricRow, error) {
	if err := ValidateCampaignID(q.CampaignID); err != nil {
		return nil, err
	}
	rows, err := s.client.Search(ctx, "metrics", q.GAQL())
	if err != nil {
		return nil, err
	}

	out := make([]models.MetricRow, 0, len(rows))
	for _, r := range rows {
		mr, err := r.metricRow(q.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("google ads metrics: %w", err)
		}
		out = append(out, mr)
	}
	s.metrics.RecordRows("googleads", len(out))
	return out, nil
}

func buildDetails(r Row, adGroups int, now time.Time) *models.CampaignDetails {
	c := r.Campaign
	d := &models.CampaignDetails{
		Campaign:        c.campaign(),
		EndDate:         c.EndDate,
		BiddingStrategy: c.BiddingStrategyType,
		AdGroups:        adGroups,
		LastModified:    now,
	}
	if c.TargetROAS != nil {
		d.TargetROAS = float64(c.TargetROAS.TargetROAS)
	}
	if c.TargetCPA != nil {
		d.TargetCPA = float64(c.TargetCPA.TargetCPAMicros) / microsPerUnit
	}
	if b := r.CampaignBudget; b != nil {
		switch {
		case b.AmountMicros != nil:
			d.Budget = &models.Budget{Amount: float64(*b.AmountMicros) / microsPerUnit, Type: models.BudgetTypeDaily}
		case b.TotalAmountMicros != nil:
			d.Budget = &models.Budget{Amount: float64(*b.TotalAmountMicros) / microsPerUnit, Type: models.BudgetTypeTotal}
		}
	}
	return d
}

func copyDetails(d *models.CampaignDetails) *models.CampaignDetails {
	c := *d
	if d.Budget != nil {
		b := *d.Budget
		c.Budget = &b
	}
	return &c
}
