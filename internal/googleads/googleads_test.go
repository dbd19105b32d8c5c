package googleads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/metrics"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

const (
	testCustomer = "1234567890"
	searchPath   = "/v17/customers/" + testCustomer + "/googleAds:search"
)

type fakeAds struct {
	t           *testing.T
	tokenStatus int
	tokenCalls  atomic.Int32
	searchCalls atomic.Int32
	mu          sync.Mutex
	queries     []searchRequest
	respond     func(req searchRequest) (int, string)
}

func newFakeAds(t *testing.T, respond func(req searchRequest) (int, string)) (*fakeAds, *httptest.Server) {
	f := &fakeAds{t: t, tokenStatus: http.StatusOK, respond: respond}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAds) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/token":
		f.tokenCalls.Add(1)
		assert.NoError(f.t, r.ParseForm())
		assert.Equal(f.t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(f.t, "rt", r.PostForm.Get("refresh_token"))
		if f.tokenStatus != http.StatusOK {
			w.WriteHeader(f.tokenStatus)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`)
	case searchPath:
		f.searchCalls.Add(1)
		assert.Equal(f.t, "Bearer at-1", r.Header.Get("Authorization"))
		assert.Equal(f.t, "dev", r.Header.Get("developer-token"))
		assert.Equal(f.t, "999", r.Header.Get("login-customer-id"))
		var req searchRequest
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.queries = append(f.queries, req)
		f.mu.Unlock()
		status, body := f.respond(req)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(srv *httptest.Server, m *metrics.Metrics) *Client {
	tokens := NewTokenSource(OAuthConfig{
		ClientID: "cid", ClientSecret: "secret", RefreshToken: "rt", TokenURL: srv.URL + "/token",
	}, srv.Client(), nil, zap.NewNop(), m)
	return NewClient(Config{
		BaseURL:         srv.URL + "/",
		APIVersion:      "v17",
		CustomerID:      testCustomer,
		LoginCustomerID: "999",
		DeveloperToken:  "dev",
		RequestsPerMin:  60000,
		Timeout:         5 * time.Second,
	}, tokens, zap.NewNop(), m)
}

func TestMetricRowsPaginatesAndDecodes(t *testing.T) {
	f, srv := newFakeAds(t, func(req searchRequest) (int, string) {
		if req.PageToken == "" {
			return http.StatusOK, `{"results":[
				{"campaign":{"id":"42"},"segments":{"date":"2025-03-01"},
				 "metrics":{"clicks":"100","impressions":"1000","costMicros":"50000000","conversions":5.0}},
				{"campaign":{"id":"42"},"segments":{"date":"2025-03-02"},"metrics":{"clicks":"7"}}
			],"nextPageToken":"p2"}`
		}
		assert.Equal(t, "p2", req.PageToken)
		return http.StatusOK, `{"results":[{"campaign":{"id":"42"},"segments":{"date":"2025-03-03"}}]}`
	})
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("test", reg)
	src := NewSource(newTestClient(srv, m), 0, 0, zap.NewNop(), m)

	dr, err := models.ParseDateRange("2025-03-01", "2025-03-03")
	require.NoError(t, err)
	q := kpi.BuildQuery("42", []models.KPIType{models.KPICTR, models.KPICPA}, dr)

	rows, err := src.MetricRows(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "42", rows[0].CampaignID)
	assert.Equal(t, 100.0, *rows[0].Clicks)
	assert.Equal(t, 50_000_000.0, *rows[0].CostMicros)
	assert.Equal(t, 5.0, *rows[0].Conversions)
	assert.Nil(t, rows[1].Impressions)
	assert.Equal(t, "2025-03-03", rows[2].Date.Format(models.DateLayout))

	require.Len(t, f.queries, 2)
	assert.Equal(t, q.GAQL(), f.queries[0].Query)
	assert.Equal(t, int32(1), f.tokenCalls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("metrics", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsFetched.WithLabelValues("googleads")))

	got := kpi.Aggregate(rows, []models.KPIType{models.KPICTR}, models.TimeRange3d)
	assert.InDelta(t, 107.0/1000*100, got[0].Value, 1e-9)
}

func TestSearchAPIError(t *testing.T) {
	_, srv := newFakeAds(t, func(searchRequest) (int, string) {
		return http.StatusBadRequest, `{"error":{"code":400,"message":"bad query","status":"INVALID_ARGUMENT"}}`
	})
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	c := newTestClient(srv, m)

	_, err := c.Search(context.Background(), "metrics", "SELECT")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Code)
	assert.Equal(t, "bad query", apiErr.Message)
	assert.NotErrorIs(t, err, ErrAuth)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("metrics", "400")))
}

func TestSearchUnauthorizedIsAuthError(t *testing.T) {
	_, srv := newFakeAds(t, func(searchRequest) (int, string) {
		return http.StatusUnauthorized, `not json`
	})
	_, err := newTestClient(srv, nil).Search(context.Background(), "metrics", "SELECT")
	assert.ErrorIs(t, err, ErrAuth)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not json", apiErr.Message)
}

func TestTokenRefreshFailureIsAuthError(t *testing.T) {
	f, srv := newFakeAds(t, func(searchRequest) (int, string) {
		return http.StatusOK, `{}`
	})
	f.tokenStatus = http.StatusBadRequest

	_, err := newTestClient(srv, nil).Search(context.Background(), "metrics", "SELECT")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, int32(0), f.searchCalls.Load())
}

func TestInvalidCampaignIDNeverReachesAPI(t *testing.T) {
	f, srv := newFakeAds(t, func(searchRequest) (int, string) { return http.StatusOK, `{}` })
	src := NewSource(newTestClient(srv, nil), 0, 0, zap.NewNop(), nil)

	for _, id := range []string{"", "0", "12 OR 1=1", "-5"} {
		_, err := src.MetricRows(context.Background(), kpi.Query{CampaignID: id})
		assert.ErrorIs(t, err, ErrInvalidCampaignID, id)
		_, err = src.CampaignDetails(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidCampaignID, id)
	}
	assert.Equal(t, int32(0), f.searchCalls.Load())
}

func TestListCampaigns(t *testing.T) {
	_, srv := newFakeAds(t, func(req searchRequest) (int, string) {
		assert.Contains(t, req.Query, "campaign.status != 'REMOVED'")
		return http.StatusOK, `{"results":[
			{"campaign":{"id":"1","name":"Brand","status":"ENABLED","advertisingChannelType":"SEARCH","startDate":"2025-01-01"}},
			{"campaign":{"id":"2","name":"PMax","status":"PAUSED","advertisingChannelType":"PERFORMANCE_MAX"}},
			{"campaign":{"id":"3","name":"Shop","status":"ENABLED","advertisingChannelType":"SHOPPING"}},
			{"campaign":{"id":"4","name":"YT","status":"ENABLED","advertisingChannelType":"VIDEO","advertisingChannelSubType":"VIDEO_ACTION"}}
		]}`
	})
	src := NewSource(newTestClient(srv, nil), 0, 0, zap.NewNop(), nil)

	got, err := src.ListCampaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, models.Campaign{ID: "1", Name: "Brand", Type: models.CampaignTypeSearch, Status: models.CampaignStatusEnabled, StartDate: "2025-01-01"}, got[0])
	assert.Equal(t, models.CampaignTypePerformanceMax, got[1].Type)
	assert.Equal(t, models.CampaignTypeDisplay, got[2].Type)
	assert.Equal(t, models.CampaignTypeVideo, got[3].Type)
}

func TestCampaignDetailsCached(t *testing.T) {
	f, srv := newFakeAds(t, func(req searchRequest) (int, string) {
		switch {
		case strings.Contains(req.Query, "FROM ad_group"):
			return http.StatusOK, `{"results":[{"adGroup":{"id":"1"}},{"adGroup":{"id":"2"}},{"adGroup":{"id":"3"}}]}`
		case strings.Contains(req.Query, "campaign.id = 77"):
			return http.StatusOK, `{"results":[]}`
		default:
			return http.StatusOK, `{"results":[{
				"campaign":{"id":"55","name":"PMax","status":"ENABLED","advertisingChannelType":"PERFORMANCE_MAX",
					"startDate":"2025-01-01","endDate":"2025-12-31","biddingStrategyType":"MAXIMIZE_CONVERSION_VALUE",
					"targetRoas":{"targetRoas":3.5},"targetCpa":{"targetCpaMicros":"25000000"}},
				"campaignBudget":{"amountMicros":"150000000","period":"DAILY"}}]}`
		}
	})
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	src := NewSource(newTestClient(srv, nil), 8, time.Minute, zap.NewNop(), nil)
	src.now = func() time.Time { return now }

	d, err := src.CampaignDetails(context.Background(), "55")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, models.CampaignTypePerformanceMax, d.Type)
	assert.Equal(t, "2025-12-31", d.EndDate)
	assert.Equal(t, 3.5, d.TargetROAS)
	assert.Equal(t, 25.0, d.TargetCPA)
	assert.Equal(t, &models.Budget{Amount: 150, Type: models.BudgetTypeDaily}, d.Budget)
	assert.Equal(t, 3, d.AdGroups)
	assert.Equal(t, int32(2), f.searchCalls.Load())

	d.Budget.Amount = 1
	again, err := src.CampaignDetails(context.Background(), "55")
	require.NoError(t, err)
	assert.Equal(t, 150.0, again.Budget.Amount)
	assert.Equal(t, int32(2), f.searchCalls.Load())

	now = now.Add(2 * time.Minute)
	_, err = src.CampaignDetails(context.Background(), "55")
	require.NoError(t, err)
	assert.Equal(t, int32(4), f.searchCalls.Load())

	missing, err := src.CampaignDetails(context.Background(), "77")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

type memStore struct {
	tok   *oauth2.Token
	err   error
	saves int
}

func (s *memStore) Load(context.Context) (*oauth2.Token, error) { return s.tok, s.err }

func (s *memStore) Save(ctx context.Context, tok *oauth2.Token) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.saves++
	s.tok = tok
	return nil
}

type slowTokenSource struct {
	delay time.Duration
}

func (s slowTokenSource) Token() (*oauth2.Token, error) {
	time.Sleep(s.delay)
	return &oauth2.Token{AccessToken: "slow", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func TestSharedTokenSourceSavesAfterSlowRefresh(t *testing.T) {
	store := &memStore{}
	src := &sharedTokenSource{
		base:    slowTokenSource{delay: 60 * time.Millisecond},
		store:   store,
		timeout: 20 * time.Millisecond,
		logger:  zap.NewNop(),
	}

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "slow", tok.AccessToken)
	assert.Equal(t, 1, store.saves)
	require.NotNil(t, store.tok)
	assert.Equal(t, "slow", store.tok.AccessToken)
}

func TestSharedTokenSource(t *testing.T) {
	f, srv := newFakeAds(t, nil)
	cfg := OAuthConfig{ClientID: "cid", ClientSecret: "secret", RefreshToken: "rt", TokenURL: srv.URL + "/token"}
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("test", reg)

	t.Run("hit skips refresh", func(t *testing.T) {
		store := &memStore{tok: &oauth2.Token{AccessToken: "shared", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}}
		tok, err := NewTokenSource(cfg, srv.Client(), store, zap.NewNop(), m).Token()
		require.NoError(t, err)
		assert.Equal(t, "shared", tok.AccessToken)
		assert.Equal(t, int32(0), f.tokenCalls.Load())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenCache.WithLabelValues("hit")))
	})

	t.Run("expired token is refreshed and saved", func(t *testing.T) {
		store := &memStore{tok: &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Minute)}}
		tok, err := NewTokenSource(cfg, srv.Client(), store, zap.NewNop(), m).Token()
		require.NoError(t, err)
		assert.Equal(t, "at-1", tok.AccessToken)
		assert.Equal(t, 1, store.saves)
		assert.Equal(t, int32(1), f.tokenCalls.Load())
	})

	t.Run("store error falls back to refresh", func(t *testing.T) {
		store := &memStore{err: errors.New("redis down")}
		tok, err := NewTokenSource(cfg, srv.Client(), store, zap.NewNop(), m).Token()
		require.NoError(t, err)
		assert.Equal(t, "at-1", tok.AccessToken)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenCache.WithLabelValues("error")))
	})
}

func TestNumberUnmarshal(t *testing.T) {
	var v struct {
		A *Number `json:"a"`
		B *Number `json:"b"`
		C *Number `json:"c"`
		D *Number `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"123","b":0.25,"c":null}`), &v))
	assert.Equal(t, 123.0, float64(*v.A))
	assert.Equal(t, 0.25, float64(*v.B))
	assert.Nil(t, v.C)
	assert.Nil(t, v.D)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"abc"}`), &v))
}

func TestValidateCampaignID(t *testing.T) {
	assert.NoError(t, ValidateCampaignID("1234567890"))
	assert.ErrorIs(t, ValidateCampaignID("abc"), ErrInvalidCampaignID)
}
