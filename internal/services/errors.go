package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")

	// ErrInvalidIdentifier marks input that is not a checksum-valid ISBN.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrProviderTransport marks timeouts, connection failures and non-200 responses.
	ErrProviderTransport = errors.New("provider transport error")
	// ErrProviderParse marks a provider payload that could not be decoded.
	ErrProviderParse = errors.New("provider parse error")
	// ErrCacheCorruption marks a cache file that exists but cannot be read.
	ErrCacheCorruption = errors.New("cache corruption")
	// ErrUnexpectedResolution marks a failure during one identifier's lookup
	// that is not attributable to a provider.
	ErrUnexpectedResolution = errors.New("unexpected resolution error")
	// ErrStorage marks failures persisting the cache or run history.
	ErrStorage = errors.New("storage error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retriable reports whether a failure may succeed when the same request is
// repeated.
func Retriable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrProviderTransport), errors.Is(err, ErrTransient):
		return true
	default:
		return false
	}
}

// Soft reports whether a failure is downgraded to a per-identifier outcome
// instead of aborting the batch.
func Soft(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrProviderTransport),
		errors.Is(err, ErrProviderParse),
		errors.Is(err, ErrCacheCorruption),
		errors.Is(err, ErrUnexpectedResolution):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
