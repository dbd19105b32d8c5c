package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/metrics"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// ClickHouseSchema holds the DDL statements for the warehouse tables read by
// ClickHouseMetricsRepo. ReplacingMergeTree keeps the latest version of a
// campaign or a campaign day.
var ClickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id               String,
		name             String,
		type             LowCardinality(String),
		status           LowCardinality(String),
		start_date       String,
		end_date         String,
		bidding_strategy String,
		target_roas      Float64,
		target_cpa       Float64,
		budget_amount    Nullable(Float64),
		budget_type      String,
		ad_groups        Int32,
		updated_at       DateTime
	) ENGINE = ReplacingMergeTree(updated_at) ORDER BY id`,
	`CREATE TABLE IF NOT EXISTS campaign_daily_metrics (
		campaign_id              String,
		date                     Date,
		clicks                   Nullable(Float64),
		impressions              Nullable(Float64),
		cost_micros              Nullable(Float64),
		conversions              Nullable(Float64),
		conversion_value         Nullable(Float64),
		video_views              Nullable(Float64),
		video_quartile_p100_rate Nullable(Float64),
		average_video_duration   Nullable(Float64),
		search_impression_share  Nullable(Float64),
		historical_quality_score Nullable(Float64),
		interactions             Nullable(Float64),
		all_conversions          Nullable(Float64)
	) ENGINE = ReplacingMergeTree ORDER BY (campaign_id, date)`,
}

// ClickHouseMetricsRepo serves campaigns and daily metric rows from a
// ClickHouse ads warehouse.
type ClickHouseMetricsRepo struct {
	conn    driver.Conn
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewClickHouseMetricsRepo(conn driver.Conn, logger *zap.Logger, m *metrics.Metrics) *ClickHouseMetricsRepo {
	return &ClickHouseMetricsRepo{conn: conn, logger: logger, metrics: m}
}

// Migrate creates the warehouse tables if they do not exist.
func (r *ClickHouseMetricsRepo) Migrate(ctx context.Context) error {
	for _, ddl := range ClickHouseSchema {
		if err := r.conn.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to migrate warehouse: %w", err)
		}
	}
	return nil
}

func (r *ClickHouseMetricsRepo) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, name, type, status, start_date
		FROM campaigns FINAL WHERE status != 'REMOVED' ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var id, name, typ, status, start string
		if err := rows.Scan(&id, &name, &typ, &status, &start); err != nil {
			return nil, err
		}
		c := models.Campaign{
			ID:        id,
			Name:      name,
			Type:      models.CampaignType(typ),
			Status:    models.CampaignStatus(status),
			StartDate: start,
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("campaign %s: %w", id, err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *ClickHouseMetricsRepo) CampaignDetails(ctx context.Context, id string) (*models.CampaignDetails, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, name, type, status, start_date, end_date, bidding_strategy,
			   target_roas, target_cpa, budget_amount, budget_type, ad_groups, updated_at
		FROM campaigns FINAL WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var (
		d                    models.CampaignDetails
		typ, status, budType string
		budget               *float64
		adGroups             int32
	)
	if err := rows.Scan(&d.ID, &d.Name, &typ, &status, &d.StartDate, &d.EndDate, &d.BiddingStrategy,
		&d.TargetROAS, &d.TargetCPA, &budget, &budType, &adGroups, &d.LastModified); err != nil {
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}
	d.Type = models.CampaignType(typ)
	d.Status = models.CampaignStatus(status)
	d.AdGroups = int(adGroups)
	if budget != nil {
		d.Budget = &models.Budget{Amount: *budget, Type: models.BudgetType(budType)}
	}
	return &d, nil
}

func (r *ClickHouseMetricsRepo) MetricRows(ctx context.Context, q kpi.Query) ([]models.MetricRow, error) {
	sql := `SELECT ` + selectList(q.Fields) + `
		FROM campaign_daily_metrics FINAL
		WHERE campaign_id = ? AND date BETWEEN ? AND ?
		ORDER BY date`

	rows, err := r.conn.Query(ctx, sql, q.CampaignID, q.Range.Start, q.Range.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var out []models.MetricRow
	for rows.Next() {
		mr := models.MetricRow{CampaignID: q.CampaignID}
		if err := rows.Scan(scanTargets(&mr, q.Fields)...); err != nil {
			return nil, fmt.Errorf("failed to scan metrics: %w", err)
		}
		mr.Date = models.Day(mr.Date)
		out = append(out, mr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.metrics.RecordRows("clickhouse", len(out))
	return out, nil
}

// SaveCampaign inserts a new version of the campaign settings.
func (r *ClickHouseMetricsRepo) SaveCampaign(ctx context.Context, d *models.CampaignDetails) error {
	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO campaigns")
	if err != nil {
		return fmt.Errorf("failed to prepare campaign insert: %w", err)
	}

	var (
		budget  *float64
		budType string
	)
	if d.Budget != nil {
		amount := d.Budget.Amount
		budget, budType = &amount, string(d.Budget.Type)
	}
	if err := batch.Append(d.ID, d.Name, string(d.Type), string(d.Status), d.StartDate, d.EndDate,
		d.BiddingStrategy, d.TargetROAS, d.TargetCPA, budget, budType, int32(d.AdGroups), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to append campaign: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	return nil
}

// SaveMetricRows inserts daily rows in one batch.
func (r *ClickHouseMetricsRepo) SaveMetricRows(ctx context.Context, rows []models.MetricRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx,
		"INSERT INTO campaign_daily_metrics (campaign_id, date, "+strings.Join(insertColumns(), ", ")+")")
	if err != nil {
		return fmt.Errorf("failed to prepare metrics insert: %w", err)
	}
	for _, mr := range rows {
		args := append([]any{mr.CampaignID, models.Day(mr.Date)}, insertValues(mr)...)
		if err := batch.Append(args...); err != nil {
			return fmt.Errorf("failed to append metric row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert metric rows: %w", err)
	}
	r.logger.Debug("saved metric rows", zap.Int("rows", len(rows)))
	return nil
}
