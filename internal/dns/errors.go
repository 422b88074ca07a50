package dns

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey is returned when a batch addresses the same record set twice.
var ErrDuplicateKey = errors.New("duplicate record key")

// APIError is returned by record-set clients when the provider answers with a
// non-2xx status. Body is the raw response body.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}
