package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/metrics"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// PostgresSchema creates the warehouse tables read by PostgresMetricsRepo.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	type             TEXT NOT NULL,
	status           TEXT NOT NULL,
	start_date       DATE,
	end_date         DATE,
	bidding_strategy TEXT NOT NULL DEFAULT '',
	target_roas      DOUBLE PRECISION NOT NULL DEFAULT 0,
	target_cpa       DOUBLE PRECISION NOT NULL DEFAULT 0,
	budget_amount    DOUBLE PRECISION,
	budget_type      TEXT,
	ad_groups        INTEGER NOT NULL DEFAULT 0,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaign_daily_metrics (
	campaign_id              TEXT NOT NULL REFERENCES campaigns (id),
	date                     DATE NOT NULL,
	clicks                   DOUBLE PRECISION,
	impressions              DOUBLE PRECISION,
	cost_micros              DOUBLE PRECISION,
	conversions              DOUBLE PRECISION,
	conversion_value         DOUBLE PRECISION,
	video_views              DOUBLE PRECISION,
	video_quartile_p100_rate DOUBLE PRECISION,
	average_video_duration   DOUBLE PRECISION,
	search_impression_share  DOUBLE PRECISION,
	historical_quality_score DOUBLE PRECISION,
	interactions             DOUBLE PRECISION,
	all_conversions          DOUBLE PRECISION,
	PRIMARY KEY (campaign_id, date)
);
`

// PostgresMetricsRepo serves campaigns and daily metric rows from a
// PostgreSQL ads warehouse.
type PostgresMetricsRepo struct {
	pool    *pgxpool.Pool
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewPostgresMetricsRepo(pool *pgxpool.Pool, logger *zap.Logger, m *metrics.Metrics) *PostgresMetricsRepo {
	return &PostgresMetricsRepo{pool: pool, logger: logger, metrics: m}
}

// Migrate creates the warehouse tables if they do not exist.
func (r *PostgresMetricsRepo) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("failed to migrate warehouse: %w", err)
	}
	return nil
}

func (r *PostgresMetricsRepo) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, type, status, start_date
		FROM campaigns WHERE status <> 'REMOVED' ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var (
			c     models.Campaign
			start *time.Time
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Status, &start); err != nil {
			return nil, err
		}
		c.StartDate = formatDate(start)
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("campaign %s: %w", c.ID, err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *PostgresMetricsRepo) CampaignDetails(ctx context.Context, id string) (*models.CampaignDetails, error) {
	var (
		d            models.CampaignDetails
		start, end   *time.Time
		budgetAmount *float64
		budgetType   *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, type, status, start_date, end_date, bidding_strategy,
			   target_roas, target_cpa, budget_amount, budget_type, ad_groups, updated_at
		FROM campaigns WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Type, &d.Status, &start, &end, &d.BiddingStrategy,
		&d.TargetROAS, &d.TargetCPA, &budgetAmount, &budgetType, &d.AdGroups, &d.LastModified)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	d.StartDate = formatDate(start)
	d.EndDate = formatDate(end)
	if budgetAmount != nil {
		d.Budget = &models.Budget{Amount: *budgetAmount, Type: models.BudgetTypeDaily}
		if budgetType != nil {
			d.Budget.Type = models.BudgetType(*budgetType)
		}
	}
	return &d, nil
}

func (r *PostgresMetricsRepo) MetricRows(ctx context.Context, q kpi.Query) ([]models.MetricRow, error) {
	sql := `SELECT ` + selectList(q.Fields) + `
		FROM campaign_daily_metrics
		WHERE campaign_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`

	rows, err := r.pool.Query(ctx, sql, q.CampaignID, q.Range.Start, q.Range.End)
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

	r.metrics.RecordRows("postgres", len(out))
	return out, nil
}

// SaveCampaign upserts campaign settings.
func (r *PostgresMetricsRepo) SaveCampaign(ctx context.Context, d *models.CampaignDetails) error {
	var (
		budgetAmount *float64
		budgetType   *string
	)
	if d.Budget != nil {
		amount, typ := d.Budget.Amount, string(d.Budget.Type)
		budgetAmount, budgetType = &amount, &typ
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO campaigns (id, name, type, status, start_date, end_date, bidding_strategy,
			target_roas, target_cpa, budget_amount, budget_type, ad_groups, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			bidding_strategy = EXCLUDED.bidding_strategy,
			target_roas = EXCLUDED.target_roas,
			target_cpa = EXCLUDED.target_cpa,
			budget_amount = EXCLUDED.budget_amount,
			budget_type = EXCLUDED.budget_type,
			ad_groups = EXCLUDED.ad_groups,
			updated_at = EXCLUDED.updated_at
	`, d.ID, d.Name, string(d.Type), string(d.Status), parseDate(d.StartDate), parseDate(d.EndDate),
		d.BiddingStrategy, d.TargetROAS, d.TargetCPA, budgetAmount, budgetType, d.AdGroups)
	if err != nil {
		return fmt.Errorf("failed to upsert campaign: %w", err)
	}
	return nil
}

// SaveMetricRows upserts daily rows in one batch.
func (r *PostgresMetricsRepo) SaveMetricRows(ctx context.Context, rows []models.MetricRow) error {
	if len(rows) == 0 {
		return nil
	}

	cols := insertColumns()
	sql := `INSERT INTO campaign_daily_metrics (campaign_id, date`
	for _, c := range cols {
		sql += ", " + c
	}
	sql += ") VALUES ($1, $2"
	for i := range cols {
		sql += fmt.Sprintf(", $%d", i+3)
	}
	sql += ") ON CONFLICT (campaign_id, date) DO UPDATE SET "
	for i, c := range cols {
		if i > 0 {
			sql += ", "
		}
		sql += c + " = EXCLUDED." + c
	}

	batch := &pgx.Batch{}
	for _, mr := range rows {
		args := append([]any{mr.CampaignID, models.Day(mr.Date)}, insertValues(mr)...)
		batch.Queue(sql, args...)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save metric rows: %w", err)
	}
	r.logger.Debug("saved metric rows", zap.Int("rows", len(rows)))
	return nil
}
