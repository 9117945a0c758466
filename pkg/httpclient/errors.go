package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

// remoteError matches {"error":{"message":"..."}} bodies returned by most
// upload APIs.
type remoteError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response from service and
// maps it onto an AppError.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	message := string(body)
	var re remoteError
	if json.Unmarshal(body, &re) == nil && re.Error != nil && re.Error.Message != "" {
		message = re.Error.Message
	}
	qualified := fmt.Sprintf("%s: %s", service, message)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(service+" resource", message)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		// Credential problems are ours, not the caller's.
		return apperrors.Unavailable(service+" rejected our credentials", fmt.Errorf("%s", qualified))
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return apperrors.Unavailable(service+" is unavailable", fmt.Errorf("%s", qualified))
	case resp.StatusCode >= 400:
		return apperrors.InvalidInput(qualified)
	default:
		return fmt.Errorf("%s returned unexpected status %d: %s", service, resp.StatusCode, message)
	}
}
