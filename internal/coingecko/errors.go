package coingecko

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the CoinGecko API, classified by
// status code so the UI can pick the right message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko API request failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  struct {
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

func newAPIError(statusCode int, body []byte) *APIError {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &APIError{
			StatusCode: statusCode,
			Message:    "too many requests to CoinGecko API, please try again in a few minutes",
		}
	case http.StatusUnauthorized:
		return &APIError{
			StatusCode: statusCode,
			Message:    "unauthorized: the requested data (especially large ranges like 'max') may require an API key or is currently restricted",
		}
	}

	msg := "failed to fetch data"
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Error != "":
			msg = parsed.Error
		case parsed.Message != "":
			msg = parsed.Message
		case parsed.Status.ErrorMessage != "":
			msg = parsed.Status.ErrorMessage
		}
	}

	return &APIError{StatusCode: statusCode, Message: msg}
}
