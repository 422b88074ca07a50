package controller

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/config"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
)

// managedRecords maps a hostname to the record type created for it.
type managedRecords map[string]string

func decodeManaged(annotations map[string]string) managedRecords {
	out := managedRecords{}
	val, ok := annotations[managedRecordsAnnotation]
	if !ok {
		return out
	}
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return managedRecords{}
	}
	return out
}

func (m managedRecords) encode() string {
	data, _ := json.Marshal(map[string]string(m))
	return string(data)
}

// routeHostnames returns the normalized, de-duplicated hostnames of a route.
func routeHostnames(route *gatewayv1.HTTPRoute) []string {
	hosts := make([]string, 0, len(route.Spec.Hostnames))
	for _, h := range route.Spec.Hostnames {
		host := strings.ToLower(strings.TrimSuffix(string(h), "."))
		if host == "" || slices.Contains(hosts, host) {
			continue
		}
		hosts = append(hosts, host)
	}
	return hosts
}

// desiredRecords resolves each hostname through the domain map. Hostnames
// without a mapping, or that cannot be split into a zone key, are skipped
// and returned separately.
func desiredRecords(hosts []string, dm *config.DomainMap) (map[string]dns.DesiredRecord, []string) {
	desired := make(map[string]dns.DesiredRecord, len(hosts))
	var skipped []string
	for _, host := range hosts {
		target, ok := dm.Lookup(host)
		if !ok {
			skipped = append(skipped, host)
			continue
		}
		key, err := dns.KeyForHostname(host, dns.TypeForTarget(target))
		if err != nil {
			skipped = append(skipped, host)
			continue
		}
		desired[host] = dns.DesiredRecord{Key: key, Value: target}
	}
	return desired, skipped
}

func sortedHosts(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
