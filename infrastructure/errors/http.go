// Package errors classifies failed upstream HTTP exchanges.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of an error response is retained.
const maxErrorBody = 4 << 10

// HTTPError is a non-2xx upstream response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream %s: %s: %s", e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.URL, e.Status)
}

// ParseHTTPError returns nil for 2xx/3xx responses, otherwise an *HTTPError
// describing resp. It reads at most a few KiB of the body.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	herr := &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	if resp.Request != nil && resp.Request.URL != nil {
		u := *resp.Request.URL
		u.RawQuery = ""
		herr.URL = u.String()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		herr.Message = fmt.Sprintf("read error body: %v", err)
		return herr
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && (payload.Error != "" || payload.Message != "") {
		herr.Message = payload.Error
		if herr.Message == "" {
			herr.Message = payload.Message
		}
		return herr
	}

	herr.Message = string(body)
	return herr
}

// StatusCode reports the upstream status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode, true
	}
	return 0, false
}
