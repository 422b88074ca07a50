// Package verify checks whether a reconciled record is visible at a resolver.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	mdns "github.com/miekg/dns"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
)

// DefaultServer is used when Resolver.Server is empty.
const DefaultServer = "8.8.8.8:53"

// Resolver queries a single DNS server.
type Resolver struct {
	Server  string        // host:port
	Timeout time.Duration // per exchange; 0 = miekg default
	Net     string        // "udp" (default) or "tcp"
}

// Answer is the outcome of a resolution check.
type Answer struct {
	Values  []string // record data returned by the server
	Matches bool     // true if the desired value is among Values
}

// Lookup returns the data of every answer record of recordType for fqdn.
func (r *Resolver) Lookup(ctx context.Context, fqdn, recordType string) ([]string, error) {
	qtype, ok := mdns.StringToType[strings.ToUpper(recordType)]
	if !ok {
		return nil, fmt.Errorf("verify: unsupported record type %q", recordType)
	}

	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(fqdn), qtype)
	m.RecursionDesired = true

	c := &mdns.Client{Net: r.Net, Timeout: r.Timeout}
	server := r.Server
	if server == "" {
		server = DefaultServer
	}

	in, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil {
		return nil, fmt.Errorf("verify: query %s %s at %s: %w", fqdn, recordType, server, err)
	}
	if in.Rcode != mdns.RcodeSuccess && in.Rcode != mdns.RcodeNameError {
		return nil, fmt.Errorf("verify: query %s %s at %s: %s", fqdn, recordType, server, mdns.RcodeToString[in.Rcode])
	}

	values := make([]string, 0, len(in.Answer))
	for _, rr := range in.Answer {
		if rr.Header().Rrtype != qtype {
			continue
		}
		switch v := rr.(type) {
		case *mdns.A:
			values = append(values, v.A.String())
		case *mdns.AAAA:
			values = append(values, v.AAAA.String())
		case *mdns.CNAME:
			values = append(values, strings.TrimSuffix(v.Target, "."))
		case *mdns.TXT:
			values = append(values, strings.Join(v.Txt, ""))
		case *mdns.MX:
			values = append(values, strings.TrimSuffix(v.Mx, "."))
		case *mdns.NS:
			values = append(values, strings.TrimSuffix(v.Ns, "."))
		}
	}
	return values, nil
}

// Check resolves the desired record's FQDN and reports whether its value
// is served.
func (r *Resolver) Check(ctx context.Context, desired dns.DesiredRecord) (Answer, error) {
	values, err := r.Lookup(ctx, desired.Key.FQDN(), desired.Key.Type)
	if err != nil {
		return Answer{}, err
	}
	ans := Answer{Values: values}
	for _, v := range values {
		if dns.EqualData(desired.Key.Type, v, desired.Value) {
			ans.Matches = true
			break
		}
	}
	return ans, nil
}
