package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ProviderError is returned for any failed generation call. StatusCode is
// zero when the request never got an HTTP response.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a provider call that never reached
// the provider: DNS, connection, TLS or proxy failures.
func IsNetworkError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.StatusCode == 0 && pe.Err != nil
}

// IsAuthError reports whether the provider rejected the API key.
func IsAuthError(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden
}

// UserMessage renders err for display, naming the provider.
func UserMessage(err error) string {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return err.Error()
	}

	name := displayName(pe.Provider)
	switch {
	case IsNetworkError(err):
		return fmt.Sprintf("Could not reach %s. Check your network connection or proxy settings.", name)
	case IsAuthError(err):
		return fmt.Sprintf("%s rejected the API key. Update it in AI settings.", name)
	case pe.StatusCode == http.StatusTooManyRequests:
		return fmt.Sprintf("%s rate limit reached. Wait a moment and try again.", name)
	case pe.StatusCode >= 500:
		return fmt.Sprintf("%s is having problems (%d). Try again later.", name, pe.StatusCode)
	case pe.StatusCode > 0:
		return fmt.Sprintf("%s error (%d): %s", name, pe.StatusCode, pe.Message)
	}
	return fmt.Sprintf("%s: %s", name, pe.Message)
}

func displayName(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "Anthropic"
	case ProviderOpenAI:
		return "OpenAI"
	}
	return provider
}
