package dns

import (
	"context"
	"fmt"
)

// MinTTL is the smallest TTL, in seconds, GoDaddy accepts for a record set.
const MinTTL = 600

// ZoneRecordKey identifies a record set within a provider zone.
type ZoneRecordKey struct {
	RootDomain string // registered domain, e.g. "example.com"
	Type       string // "A", "AAAA", "CNAME", ...
	Name       string // host label relative to RootDomain, "@" for the apex
}

// FQDN returns the fully qualified hostname the key resolves to, without a
// trailing dot.
func (k ZoneRecordKey) FQDN() string {
	if k.Name == "" || k.Name == "@" {
		return k.RootDomain
	}
	return k.Name + "." + k.RootDomain
}

func (k ZoneRecordKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.RootDomain, k.Type, k.Name)
}

// DesiredRecord is the intended state of one record set.
type DesiredRecord struct {
	Key   ZoneRecordKey
	Value string // IP address or target hostname
	TTL   int    // seconds; 0 = provider default when passed through a Provider
}

// RecordValue is a single entry of a provider record set.
type RecordValue struct {
	Data string `json:"data"`
	TTL  int    `json:"ttl"`
}

// Credentials authenticate calls against the provider API.
type Credentials struct {
	Key    string
	Secret string
}

// String redacts the secret so credentials can be logged safely.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Key: %q, Secret: <redacted>}", c.Key)
}

// Empty reports whether either half of the pair is missing.
func (c Credentials) Empty() bool {
	return c.Key == "" || c.Secret == ""
}

// RecordSetWriter replaces a whole record set addressed by key.
type RecordSetWriter interface {
	ReplaceRecordSet(ctx context.Context, creds Credentials, key ZoneRecordKey, values []RecordValue) error
}

// RecordSetClient is the full record-set API a provider client exposes.
type RecordSetClient interface {
	RecordSetWriter
	GetRecordSet(ctx context.Context, creds Credentials, key ZoneRecordKey) ([]RecordValue, error)
	DeleteRecordSet(ctx context.Context, creds Credentials, key ZoneRecordKey) error
}

// Provider is a record-set client bound to credentials, used by long-running
// callers such as the HTTPRoute controller and the batch runner.
type Provider interface {
	Exists(ctx context.Context, key ZoneRecordKey) (bool, error)
	Reconcile(ctx context.Context, desired DesiredRecord) Result
	Delete(ctx context.Context, key ZoneRecordKey) error
	DefaultTTL() int
}
