// Package apply reconciles a batch of desired records concurrently.
package apply

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
)

// DefaultConcurrency bounds the number of in-flight requests.
const DefaultConcurrency = 4

// Outcome pairs a desired record with the result of reconciling it.
type Outcome struct {
	Record dns.DesiredRecord
	Result dns.Result
}

// Runner reconciles batches through a Provider.
type Runner struct {
	Provider    dns.Provider
	Concurrency int
	Log         logr.Logger
}

// Run reconciles every record and returns the outcomes in input order. A
// batch that addresses the same record set twice is refused before any
// request is sent. Individual failures are reported in the outcomes and do
// not stop the remaining records.
func (r *Runner) Run(ctx context.Context, records []dns.DesiredRecord) ([]Outcome, error) {
	if err := checkDistinct(records); err != nil {
		return nil, err
	}

	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	outcomes := make([]Outcome, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, rec := range records {
		g.Go(func() error {
			res := r.Provider.Reconcile(gctx, rec)
			outcomes[i] = Outcome{Record: rec, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	applied := 0
	for _, o := range outcomes {
		if o.Result.Applied() {
			applied++
		}
	}
	r.Log.Info("batch reconciled", "records", len(records), "applied", applied)
	return outcomes, nil
}

// Failed returns the outcomes whose result is not Applied.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.Result.Applied() {
			failed = append(failed, o)
		}
	}
	return failed
}

func checkDistinct(records []dns.DesiredRecord) error {
	seen := make(map[dns.ZoneRecordKey]int, len(records))
	for i, rec := range records {
		if j, ok := seen[rec.Key]; ok {
			return fmt.Errorf("records %d and %d both target %s: %w", j, i, rec.Key, dns.ErrDuplicateKey)
		}
		seen[rec.Key] = i
	}
	return nil
}
