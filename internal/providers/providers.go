// Package providers wraps every upstream vendor behind a capability
// interface. Vendor identity never leaks past this tree: callers see
// capability names and the shared sentinel errors only.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrUnavailable is returned for any transport or upstream failure.
	// The message is safe to surface to tenants.
	ErrUnavailable = errors.New("provider_unavailable")

	// ErrRejected is returned when the upstream accepted the request but
	// refused the operation, for example an invalid destination number.
	ErrRejected = errors.New("provider_rejected")

	// ErrNotConfigured is returned when an adapter is missing credentials.
	ErrNotConfigured = errors.New("provider_not_configured")
)

// NewHTTPClient builds the client every REST adapter shares.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// DecodeResponse maps an upstream HTTP response onto the sentinel errors
// and decodes the body into out when the call succeeded. out may be nil.
func DecodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: malformed upstream response", ErrUnavailable)
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: upstream status %d", ErrRejected, resp.StatusCode)
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}
}
