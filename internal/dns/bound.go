package dns

import (
	"context"

	"github.com/go-logr/logr"
)

// BoundProvider implements Provider by binding a RecordSetClient to a fixed
// credential pair.
type BoundProvider struct {
	client     RecordSetClient
	creds      Credentials
	defaultTTL int
	reconciler *Reconciler
	log        logr.Logger
}

// Bind returns a Provider that calls client with creds. Records without a
// TTL are reconciled with defaultTTL.
func Bind(client RecordSetClient, creds Credentials, defaultTTL int, log logr.Logger) *BoundProvider {
	return &BoundProvider{
		client:     client,
		creds:      creds,
		defaultTTL: defaultTTL,
		reconciler: &Reconciler{Writer: client, Log: log},
		log:        log,
	}
}

// Client returns the underlying record-set client.
func (p *BoundProvider) Client() RecordSetClient {
	return p.client
}

// Credentials returns the bound credential pair.
func (p *BoundProvider) Credentials() Credentials {
	return p.creds
}

func (p *BoundProvider) DefaultTTL() int {
	return p.defaultTTL
}

// Exists reports whether the provider holds at least one value for key.
func (p *BoundProvider) Exists(ctx context.Context, key ZoneRecordKey) (bool, error) {
	p.log.V(1).Info("checking if record set exists", "record", key.String())
	values, err := p.client.GetRecordSet(ctx, p.creds, key)
	if err != nil {
		return false, err
	}
	return len(values) > 0, nil
}

// Reconcile upserts desired, filling in the default TTL when unset.
func (p *BoundProvider) Reconcile(ctx context.Context, desired DesiredRecord) Result {
	if desired.TTL == 0 {
		desired.TTL = p.defaultTTL
	}
	return p.reconciler.Reconcile(ctx, desired, p.creds)
}

// Delete removes the record set behind key.
func (p *BoundProvider) Delete(ctx context.Context, key ZoneRecordKey) error {
	p.log.Info("deleting record set", "record", key.String())
	return p.client.DeleteRecordSet(ctx, p.creds, key)
}
