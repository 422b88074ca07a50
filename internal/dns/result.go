package dns

import "fmt"

// Outcome tags a Result.
type Outcome int

const (
	// Applied means the provider accepted the replace request.
	Applied Outcome = iota
	// RejectedByProvider means the provider answered with a non-2xx status.
	RejectedByProvider
	// TransportError means the provider could not be reached.
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RejectedByProvider:
		return "rejected"
	case TransportError:
		return "transport-error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of a single reconcile call. StatusCode and Body are
// set for RejectedByProvider, Message for TransportError.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Body       string
	Message    string
}

// Applied reports whether the provider accepted the request.
func (r Result) Applied() bool {
	return r.Outcome == Applied
}

// Err returns nil for an applied result and a descriptive error otherwise.
func (r Result) Err() error {
	switch r.Outcome {
	case Applied:
		return nil
	case RejectedByProvider:
		return &APIError{StatusCode: r.StatusCode, Body: r.Body}
	default:
		return fmt.Errorf("transport error: %s", r.Message)
	}
}

func (r Result) String() string {
	switch r.Outcome {
	case RejectedByProvider:
		return fmt.Sprintf("rejected (%d)", r.StatusCode)
	case TransportError:
		return "transport error: " + r.Message
	default:
		return r.Outcome.String()
	}
}
