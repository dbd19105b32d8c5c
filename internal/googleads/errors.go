package googleads

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuth reports that no usable access token could be obtained or that
	// the API rejected the credentials.
	ErrAuth = errors.New("google ads: authentication failed")

	// ErrInvalidCampaignID reports a campaign id that is not a positive integer.
	ErrInvalidCampaignID = errors.New("google ads: invalid campaign id")
)

// APIError is a non-2xx response from the Google Ads REST API.
type APIError struct {
	Status  int    `json:"code"`   // HTTP status
	Code    string `json:"status"` // canonical status, e.g. INVALID_ARGUMENT
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("google ads api: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("google ads api: http %d %s: %s", e.Status, e.Code, e.Message)
}

// Is makes errors.Is(err, ErrAuth) true for credential rejections.
func (e *APIError) Is(target error) bool {
	return target == ErrAuth && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}
