package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// DomainMap maps domains to the target their hostnames should point at.
// A target is either an IP address (A/AAAA record) or a hostname (CNAME).
type DomainMap struct {
	entries map[string]string
}

// LoadDomainMap reads a YAML file mapping domains to targets.
func LoadDomainMap(path string) (*DomainMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading domain map file: %w", err)
	}

	entries := make(map[string]string)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing domain map file: %w", err)
	}

	for k, v := range entries {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("domain map: empty target for %q", k)
		}
	}

	return NewDomainMap(entries), nil
}

// NewDomainMap builds a DomainMap from in-memory entries. Keys are
// lower-cased and trailing dots are dropped from keys and targets.
func NewDomainMap(entries map[string]string) *DomainMap {
	m := make(map[string]string, len(entries))
	for k, v := range entries {
		key := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(k), "."))
		m[key] = strings.TrimSuffix(strings.TrimSpace(v), ".")
	}
	return &DomainMap{entries: m}
}

// Lookup finds the target for a hostname by matching against domain entries.
// It walks up the domain labels checking for exact matches and wildcard entries.
// Exact matches take priority over wildcards. For example, given:
//
//	"*.mydomain.com":    "76.76.21.21"
//	"app2.mydomain.com": "app2.vercel-dns.com"
//
// "app1.mydomain.com" returns "76.76.21.21" (wildcard match)
// "app2.mydomain.com" returns "app2.vercel-dns.com" (exact match wins)
func (dm *DomainMap) Lookup(hostname string) (string, bool) {
	hostname = strings.ToLower(strings.TrimSuffix(hostname, "."))
	for h := hostname; h != ""; {
		if target, ok := dm.entries[h]; ok {
			return target, true
		}
		idx := strings.Index(h, ".")
		if idx < 0 {
			break
		}
		if target, ok := dm.entries["*."+h[idx+1:]]; ok {
			return target, true
		}
		h = h[idx+1:]
	}
	return "", false
}

// Domains returns all configured domain entries, sorted.
func (dm *DomainMap) Domains() []string {
	domains := make([]string, 0, len(dm.entries))
	for d := range dm.entries {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
