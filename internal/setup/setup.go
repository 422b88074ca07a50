// Package setup points a subdomain at a deployment: it registers the custom
// domain with the platform, upserts the DNS record and falls back to manual
// instructions when the provider does not accept the change.
package setup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/platform"
)

// Options describe the domain to set up.
type Options struct {
	RootDomain string // e.g. "example.com"
	Subdomain  string // e.g. "sig"; "@" or empty for the apex
	Target     string // deployment hostname or IP
	Type       string // defaults to CNAME for hostnames, A/AAAA for IPs
	TTL        int    // defaults to dns.MinTTL
	ConfigPath string // where to write domain-config.json; empty skips it
}

// Workflow runs the setup steps. Registrar may be nil to skip registration.
type Workflow struct {
	Registrar   platform.Registrar
	Writer      dns.RecordSetWriter
	Credentials dns.Credentials
	Out         io.Writer
	Log         logr.Logger
	Now         func() time.Time
}

// Report summarizes a run.
type Report struct {
	Domain      string
	Record      dns.DesiredRecord
	RegisterErr error // nil when registration succeeded or was skipped
	Registered  bool
	Result      dns.Result
}

// DomainConfig is persisted after a run.
type DomainConfig struct {
	Domain     string    `json:"domain"`
	Subdomain  string    `json:"subdomain"`
	RootDomain string    `json:"rootDomain"`
	Target     string    `json:"target"`
	RecordType string    `json:"recordType"`
	TTL        int       `json:"ttl"`
	Outcome    string    `json:"outcome"`
	SetupDate  time.Time `json:"setupDate"`
}

// Desired builds the record the options describe.
func (o Options) Desired() (dns.DesiredRecord, error) {
	root := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(o.RootDomain), "."))
	if root == "" {
		return dns.DesiredRecord{}, fmt.Errorf("setup: root domain is required")
	}
	target := strings.TrimSpace(o.Target)
	if target == "" {
		return dns.DesiredRecord{}, fmt.Errorf("setup: target is required")
	}
	name := strings.TrimSpace(o.Subdomain)
	if name == "" {
		name = "@"
	}
	recordType := strings.ToUpper(o.Type)
	if recordType == "" {
		recordType = dns.TypeForTarget(target)
	}
	ttl := o.TTL
	if ttl == 0 {
		ttl = dns.MinTTL
	}
	if ttl < dns.MinTTL {
		return dns.DesiredRecord{}, fmt.Errorf("setup: ttl %d is below the minimum of %d", ttl, dns.MinTTL)
	}
	return dns.DesiredRecord{
		Key:   dns.ZoneRecordKey{RootDomain: root, Type: recordType, Name: name},
		Value: target,
		TTL:   ttl,
	}, nil
}

// Run executes the workflow. Registration and DNS failures are reported in
// the Report, not as errors; an error means invalid options or a failure to
// save the domain config.
func (w *Workflow) Run(ctx context.Context, opts Options) (*Report, error) {
	desired, err := opts.Desired()
	if err != nil {
		return nil, err
	}
	out := w.out()
	domain := desired.Key.FQDN()
	rep := &Report{Domain: domain, Record: desired}

	fmt.Fprintf(out, "Setting up domain: %s\n\n", domain)

	if w.Registrar != nil {
		fmt.Fprintln(out, "Step 1: adding domain to the deployment platform")
		if err := w.Registrar.RegisterCustomDomain(ctx, domain); err != nil {
			rep.RegisterErr = err
			if errors.Is(err, platform.ErrDomainExists) {
				fmt.Fprintln(out, "  domain is already registered with the platform")
			} else {
				w.Log.Info("domain registration failed", "domain", domain, "error", err.Error())
				fmt.Fprintf(out, "  could not add domain (%v); add %s manually in the platform dashboard\n", err, domain)
			}
		} else {
			rep.Registered = true
			fmt.Fprintln(out, "  domain added")
		}
	} else {
		fmt.Fprintln(out, "Step 1: skipping platform registration")
	}

	fmt.Fprintln(out, "Step 2: configuring DNS")
	r := &dns.Reconciler{Writer: w.Writer, Log: w.Log}
	rep.Result = r.Reconcile(ctx, desired, w.Credentials)
	if rep.Result.Applied() {
		fmt.Fprintf(out, "  %s record: %s -> %s\n", desired.Key.Type, desired.Key.Name, desired.Value)
	} else {
		fmt.Fprintf(out, "  DNS update failed: %s\n", describe(rep.Result))
		WriteManualInstructions(out, desired)
	}

	WriteSummary(out, rep)

	if opts.ConfigPath != "" {
		if err := SaveDomainConfig(opts.ConfigPath, w.domainConfig(rep)); err != nil {
			return rep, err
		}
		fmt.Fprintf(out, "\nConfiguration saved to: %s\n", opts.ConfigPath)
	}
	return rep, nil
}

func describe(res dns.Result) string {
	if res.Outcome == dns.RejectedByProvider {
		return fmt.Sprintf("provider returned %d: %s", res.StatusCode, strings.TrimSpace(res.Body))
	}
	return res.String()
}

// WriteManualInstructions prints the record an operator has to create by hand.
func WriteManualInstructions(out io.Writer, desired dns.DesiredRecord) {
	fmt.Fprintln(out, "\nManual DNS setup:")
	fmt.Fprintf(out, "  1. Open the DNS management page for %s\n", desired.Key.RootDomain)
	fmt.Fprintln(out, "  2. Add a record:")
	fmt.Fprintf(out, "     Type:  %s\n", desired.Key.Type)
	fmt.Fprintf(out, "     Name:  %s\n", desired.Key.Name)
	fmt.Fprintf(out, "     Value: %s\n", desired.Value)
	fmt.Fprintf(out, "     TTL:   %d\n", desired.TTL)
	fmt.Fprintln(out, "  3. Save and wait for propagation")
}

// WriteSummary prints the end-of-run summary.
func WriteSummary(out io.Writer, rep *Report) {
	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  Domain:    %s\n", rep.Domain)
	fmt.Fprintf(out, "  Points to: %s\n", rep.Record.Value)
	fmt.Fprintf(out, "  Type:      %s\n", rep.Record.Key.Type)
	fmt.Fprintf(out, "  DNS:       %s\n", rep.Result)
	if rep.Result.Applied() {
		fmt.Fprintf(out, "\nOnce DNS propagates the site is available at https://%s\n", rep.Domain)
	}
}

// SaveDomainConfig writes cfg as indented JSON.
func SaveDomainConfig(path string, cfg DomainConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("setup: marshal domain config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("setup: write domain config: %w", err)
	}
	return nil
}

func (w *Workflow) domainConfig(rep *Report) DomainConfig {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	return DomainConfig{
		Domain:     rep.Domain,
		Subdomain:  rep.Record.Key.Name,
		RootDomain: rep.Record.Key.RootDomain,
		Target:     rep.Record.Value,
		RecordType: rep.Record.Key.Type,
		TTL:        rep.Record.TTL,
		Outcome:    rep.Result.Outcome.String(),
		SetupDate:  now().UTC(),
	}
}

func (w *Workflow) out() io.Writer {
	if w.Out == nil {
		return io.Discard
	}
	return w.Out
}
