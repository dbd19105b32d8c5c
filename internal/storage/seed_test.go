package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/models"
	"github.com/radiusdt/kpi-dashboard/internal/synthetic"
)

// memWarehouse records what Seed writes.
type memWarehouse struct {
	campaigns []models.Campaign
	details   map[string]*models.CampaignDetails
	rows      []models.MetricRow
}

func newMemWarehouse() *memWarehouse {
	return &memWarehouse{details: map[string]*models.CampaignDetails{}}
}

func (m *memWarehouse) Migrate(context.Context) error { return nil }

func (m *memWarehouse) ListCampaigns(context.Context) ([]models.Campaign, error) {
	return m.campaigns, nil
}

func (m *memWarehouse) CampaignDetails(_ context.Context, id string) (*models.CampaignDetails, error) {
	return m.details[id], nil
}

func (m *memWarehouse) MetricRows(context.Context, kpi.Query) ([]models.MetricRow, error) {
	return m.rows, nil
}

func (m *memWarehouse) SaveCampaign(_ context.Context, d *models.CampaignDetails) error {
	m.campaigns = append(m.campaigns, d.Campaign)
	m.details[d.ID] = d
	return nil
}

func (m *memWarehouse) SaveMetricRows(_ context.Context, rows []models.MetricRow) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func TestSeedCopiesSyntheticData(t *testing.T) {
	w := newMemWarehouse()
	src := synthetic.NewSource(7, zap.NewNop(), nil)
	today := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	n, err := Seed(context.Background(), w, src, 14, today, zap.NewNop())
	require.NoError(t, err)

	campaigns, _ := src.ListCampaigns(context.Background())
	assert.Equal(t, len(campaigns)*14, n)
	assert.Len(t, w.rows, n)
	assert.Len(t, w.campaigns, len(campaigns))

	for _, r := range w.rows {
		assert.False(t, r.Date.After(models.Day(today)))
		assert.False(t, r.Date.Before(models.Day(today).AddDate(0, 0, -13)))
		assert.NotNil(t, r.Clicks)
	}
	require.NotNil(t, w.details["1001"])
	assert.Equal(t, models.CampaignTypeVideo, w.details["1001"].Type)

	// a populated warehouse is left alone
	n, err = Seed(context.Background(), w, src, 14, today, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeedDisabled(t *testing.T) {
	w := newMemWarehouse()
	n, err := Seed(context.Background(), w, synthetic.NewSource(7, zap.NewNop(), nil), 0, time.Now(), zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, w.campaigns)
}
