package dns

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
)

// Reconciler upserts single record sets through a RecordSetWriter.
// It holds no state between calls.
type Reconciler struct {
	Writer RecordSetWriter
	Log    logr.Logger
}

// Reconcile replaces the record set addressed by desired.Key with a single
// entry holding desired.Value and desired.TTL. It issues exactly one request
// and never retries; the provider's replace-by-key semantics make repeated
// calls safe.
func (r *Reconciler) Reconcile(ctx context.Context, desired DesiredRecord, creds Credentials) Result {
	log := r.Log.WithValues("record", desired.Key.String(), "value", desired.Value, "ttl", desired.TTL)
	log.V(1).Info("replacing record set")

	values := []RecordValue{{Data: desired.Value, TTL: desired.TTL}}
	err := r.Writer.ReplaceRecordSet(ctx, creds, desired.Key, values)
	res := classify(err)

	observeOutcome(desired.Key.Type, res.Outcome)
	switch res.Outcome {
	case Applied:
		log.Info("record set applied")
	case RejectedByProvider:
		log.Info("provider rejected record set", "status", res.StatusCode, "body", res.Body)
	default:
		log.Error(err, "could not reach provider")
	}
	return res
}

// Reconcile is the stateless form of Reconciler.Reconcile without logging.
func Reconcile(ctx context.Context, w RecordSetWriter, desired DesiredRecord, creds Credentials) Result {
	r := &Reconciler{Writer: w, Log: logr.Discard()}
	return r.Reconcile(ctx, desired, creds)
}

func classify(err error) Result {
	if err == nil {
		return Result{Outcome: Applied}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return Result{Outcome: RejectedByProvider, StatusCode: apiErr.StatusCode, Body: apiErr.Body}
	}
	msg := err.Error()
	if msg == "" {
		msg = "unknown transport failure"
	}
	return Result{Outcome: TransportError, Message: msg}
}

// ReadBack fetches the record set behind desired.Key and reports whether it
// holds exactly the desired value.
func ReadBack(ctx context.Context, c RecordSetClient, creds Credentials, desired DesiredRecord) (bool, error) {
	values, err := c.GetRecordSet(ctx, creds, desired.Key)
	if err != nil {
		return false, err
	}
	if len(values) != 1 {
		return false, nil
	}
	v := values[0]
	return EqualData(desired.Key.Type, v.Data, desired.Value) && (desired.TTL == 0 || v.TTL == desired.TTL), nil
}
