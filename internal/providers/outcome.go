package providers

import (
	"fmt"
	"strings"
)

const (
	// NotFoundSentinel is reported when every source was exhausted.
	NotFoundSentinel = "No encontrado"
	// UnprocessedSentinel is reported when resolving one identifier failed
	// unexpectedly.
	UnprocessedSentinel = "Error: No procesado"
	// UnknownDate is reported when a source confirms the book but omits its date.
	UnknownDate = "Desconocido"
)

// Status classifies a lookup outcome.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of asking one source, or a whole chain, for a date.
type Outcome struct {
	Status   Status
	Date     string
	Provider string
	Err      error
	// Trace holds one human-readable line per attempt, oldest first.
	Trace []string
}

// Found builds a successful outcome.
func Found(provider, date string) Outcome {
	return Outcome{Status: StatusFound, Provider: provider, Date: date}
}

// NotFound builds an outcome for a source that answered without a date.
func NotFound(provider string) Outcome {
	return Outcome{Status: StatusNotFound, Provider: provider}
}

// Failed builds an outcome for a source that could not answer.
func Failed(provider string, err error) Outcome {
	return Outcome{Status: StatusError, Provider: provider, Err: err}
}

// FormatDate shortens full dates to DD-MM-YY and keeps bare years. Anything
// else is returned unchanged.
func FormatDate(raw string) string {
	if len(raw) == 4 {
		return raw
	}
	if len(raw) >= 10 {
		parts := strings.Split(raw, "-")
		if len(parts) >= 3 && len(parts[0]) >= 2 {
			day := parts[2]
			if len(day) > 2 {
				day = day[:2]
			}
			return day + "-" + parts[1] + "-" + parts[0][2:]
		}
	}
	return raw
}
