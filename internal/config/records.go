package config

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
)

// RecordEntry is one desired record in a records file. Either Hostname or
// RootDomain+Name must be set. Type defaults to the type implied by Value.
type RecordEntry struct {
	Hostname   string `yaml:"hostname"`
	RootDomain string `yaml:"root_domain"`
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Value      string `yaml:"value"`
	TTL        int    `yaml:"ttl"`
}

// RecordsFile is the document read by the apply command.
type RecordsFile struct {
	Records []RecordEntry `yaml:"records"`
}

// LoadRecords reads a records file and converts it into desired records.
func LoadRecords(path string) ([]dns.DesiredRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records file: %w", err)
	}

	var f RecordsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing records file: %w", err)
	}

	out := make([]dns.DesiredRecord, 0, len(f.Records))
	for i, e := range f.Records {
		rec, err := e.Desired()
		if err != nil {
			return nil, fmt.Errorf("records file: entry %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Desired converts the entry into a DesiredRecord.
func (e RecordEntry) Desired() (dns.DesiredRecord, error) {
	value := strings.TrimSpace(e.Value)
	if value == "" {
		return dns.DesiredRecord{}, fmt.Errorf("missing value")
	}
	recordType := strings.ToUpper(e.Type)
	if recordType == "" {
		recordType = dns.TypeForTarget(value)
	}
	if e.TTL != 0 && e.TTL < dns.MinTTL {
		return dns.DesiredRecord{}, fmt.Errorf("ttl %d is below the minimum of %d", e.TTL, dns.MinTTL)
	}

	var key dns.ZoneRecordKey
	switch {
	case e.Hostname != "":
		k, err := dns.KeyForHostname(e.Hostname, recordType)
		if err != nil {
			return dns.DesiredRecord{}, err
		}
		key = k
	case e.RootDomain != "":
		name := e.Name
		if name == "" {
			name = "@"
		}
		key = dns.ZoneRecordKey{RootDomain: strings.ToLower(e.RootDomain), Type: recordType, Name: name}
	default:
		return dns.DesiredRecord{}, fmt.Errorf("either hostname or root_domain is required")
	}

	return dns.DesiredRecord{Key: key, Value: value, TTL: e.TTL}, nil
}
