package dns

import (
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// SplitHostname splits an FQDN into its host label and registered domain
// using the public suffix list.
// e.g. "app.example.com" → ("app", "example.com")
// e.g. "sub.app.example.co.uk" → ("sub.app", "example.co.uk")
// e.g. "example.com" → ("@", "example.com")
// e.g. "*.app.example.com" → ("*.app", "example.com")
func SplitHostname(fqdn string) (label, rootDomain string, err error) {
	fqdn = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(fqdn), "."))
	if fqdn == "" {
		return "", "", fmt.Errorf("empty hostname")
	}
	if rest, ok := strings.CutPrefix(fqdn, "*."); ok {
		label, rootDomain, err = SplitHostname(rest)
		if err != nil {
			return "", "", err
		}
		if label == "@" {
			return "*", rootDomain, nil
		}
		return "*." + label, rootDomain, nil
	}
	rootDomain, err = publicsuffix.EffectiveTLDPlusOne(fqdn)
	if err != nil {
		return "", "", fmt.Errorf("splitting %q: %w", fqdn, err)
	}
	if fqdn == rootDomain {
		return "@", rootDomain, nil
	}
	return strings.TrimSuffix(fqdn, "."+rootDomain), rootDomain, nil
}

// KeyForHostname builds the record key for an FQDN and record type.
func KeyForHostname(fqdn, recordType string) (ZoneRecordKey, error) {
	label, root, err := SplitHostname(fqdn)
	if err != nil {
		return ZoneRecordKey{}, err
	}
	return ZoneRecordKey{RootDomain: root, Type: strings.ToUpper(recordType), Name: label}, nil
}

// TypeForTarget picks A, AAAA or CNAME depending on what target looks like.
func TypeForTarget(target string) string {
	addr, err := netip.ParseAddr(target)
	switch {
	case err != nil:
		return "CNAME"
	case addr.Is4():
		return "A"
	default:
		return "AAAA"
	}
}

// EqualData compares record data the way resolvers do: case-insensitive and
// ignoring a trailing dot for hostnames, by value for addresses.
func EqualData(recordType, a, b string) bool {
	switch strings.ToUpper(recordType) {
	case "A", "AAAA":
		x, errX := netip.ParseAddr(a)
		y, errY := netip.ParseAddr(b)
		if errX == nil && errY == nil {
			return x == y
		}
		return a == b
	case "CNAME", "NS", "MX", "PTR":
		return strings.EqualFold(strings.TrimSuffix(a, "."), strings.TrimSuffix(b, "."))
	default:
		return a == b
	}
}
