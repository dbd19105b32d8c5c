package googleads

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/radiusdt/kpi-dashboard/internal/metrics"
)

// tokenStoreTimeout bounds a single shared-cache lookup or write.
const tokenStoreTimeout = 2 * time.Second

// OAuthConfig holds the installed-app credentials used for the refresh-token
// grant.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
}

// TokenStore shares access tokens between processes. Load returns nil, nil
// when nothing is cached.
type TokenStore interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, tok *oauth2.Token) error
}

// NewTokenSource returns a token source that refreshes access tokens from the
// refresh token, keeps the current one in memory until it expires and, when
// store is non-nil, consults and updates the shared cache first. httpClient
// is used for token requests and may be nil.
func NewTokenSource(cfg OAuthConfig, httpClient *http.Client, store TokenStore, logger *zap.Logger, m *metrics.Metrics) oauth2.TokenSource {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx := context.Background()
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	base := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	if store == nil {
		return base
	}
	return oauth2.ReuseTokenSource(nil, &sharedTokenSource{
		base:    base,
		store:   store,
		timeout: tokenStoreTimeout,
		logger:  logger,
		metrics: m,
	})
}

// sharedTokenSource prefers a valid token from the store over refreshing.
type sharedTokenSource struct {
	base    oauth2.TokenSource
	store   TokenStore
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func (s *sharedTokenSource) Token() (*oauth2.Token, error) {
	loadCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	tok, err := s.store.Load(loadCtx)
	cancel()
	switch {
	case err != nil:
		s.metrics.RecordTokenCache("error")
		s.logger.Warn("token cache lookup failed", zap.Error(err))
	case tok != nil && tok.Valid():
		s.metrics.RecordTokenCache("hit")
		return tok, nil
	default:
		s.metrics.RecordTokenCache("miss")
	}

	tok, err = s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	// Separate deadline: the refresh may outlast the load one.
	saveCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.store.Save(saveCtx, tok); err != nil {
		s.logger.Warn("token cache write failed", zap.Error(err))
	}
	return tok, nil
}
