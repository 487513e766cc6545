package registrar

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is a non-2xx registrar response.
type StatusError struct {
	StatusCode  int
	Code        string
	Description string
	parsed      bool
}

func (e *StatusError) Error() string {
	if e == nil {
		return "unexpected status code"
	}
	if !e.parsed {
		return fmt.Sprintf("unexpected status code %d: cannot parse error response", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code %d: %s, %s", e.StatusCode, e.Code, e.Description)
}

func newStatusError(resp *http.Response) *StatusError {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return statusErr
	}
	var payload struct {
		Error       *string `json:"error"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return statusErr
	}
	statusErr.parsed = true
	statusErr.Code = "Unknown error"
	statusErr.Description = "No description"
	if payload.Error != nil {
		statusErr.Code = *payload.Error
	}
	if payload.Description != nil {
		statusErr.Description = *payload.Description
	}
	return statusErr
}
