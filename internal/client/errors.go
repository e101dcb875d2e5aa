package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"charm.land/fantasy"
)

// reasonFor returns a short operator-facing explanation of a failed request.
func reasonFor(err error, id string) string {
	if errors.Is(err, ErrClosed) {
		return fmt.Sprintf("Client for %s was already closed.", id)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("Request to %s timed out.", id)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Sprintf("Request to %s was cancelled.", id)
	}

	var providerErr *fantasy.ProviderError
	if !errors.As(err, &providerErr) {
		return fmt.Sprintf("There was a problem with the %s API request.", id)
	}
	switch providerErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("Authentication failed for %s; check its API key.", id)
	case http.StatusNotFound:
		return fmt.Sprintf("Model or endpoint not found for %s.", id)
	case http.StatusBadRequest:
		if isContextLengthExceeded(providerErr) {
			return "Maximum prompt size exceeded."
		}
	}
	if reason := fantasy.ErrorTitleForStatusCode(providerErr.StatusCode); reason != "" {
		return reason
	}
	return fmt.Sprintf("%s API request error.", id)
}

func isContextLengthExceeded(err *fantasy.ProviderError) bool {
	return strings.Contains(strings.ToLower(err.Message), "context_length_exceeded") ||
		strings.Contains(strings.ToLower(string(err.ResponseBody)), "context_length_exceeded")
}
