package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/go-context-propagation/internal/adapters/clients"
	"github.com/jsamuelsen/go-context-propagation/internal/domain"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// errorResponse is the error envelope of downstream services.
// Both the nested {"error":{"code","message"}} and the flat form are accepted.
type errorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *errorResponse) message() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// parseErrorResponse returns nil when body holds no recognizable error.
func parseErrorResponse(body io.Reader) *errorResponse {
	if body == nil {
		return nil
	}

	var errResp errorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.message() == "" && errResp.Error.Code == "" && errResp.Code == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError maps a failed downstream call to a domain error.
// resp may be nil when clientErr is set. Success responses map to nil.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received", nil)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	return mapStatusCode(resp.StatusCode, parseErrorResponse(resp.Body), serviceName, operation)
}

func mapClientError(err error, serviceName, operation string) error {
	if errors.Is(err, clients.ErrMaxRetriesExceeded) {
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("max retries exceeded during %s", operation), err)
	}

	return domain.NewUnavailableError(serviceName, operation+" failed", err)
}

func mapStatusCode(status int, errResp *errorResponse, serviceName, operation string) error {
	message := fmt.Sprintf("%s failed with status %d", operation, status)
	if errResp != nil && errResp.message() != "" {
		message = errResp.message()
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(serviceName+" resource", "")

	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		if errResp != nil {
			for field, msg := range errResp.Error.Details {
				return domain.NewValidationError(field, msg)
			}
		}

		return domain.NewValidationError("", message)

	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded", nil)

	default:
		return domain.NewUnavailableError(serviceName, message, nil)
	}
}
