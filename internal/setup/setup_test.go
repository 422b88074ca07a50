package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logrtesting "github.com/go-logr/logr/testing"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/platform"
)

type fakeRegistrar struct {
	domains []string
	err     error
}

func (f *fakeRegistrar) RegisterCustomDomain(_ context.Context, domain string) error {
	f.domains = append(f.domains, domain)
	return f.err
}

type fakeWriter struct {
	keys   []dns.ZoneRecordKey
	values [][]dns.RecordValue
	err    error
}

func (f *fakeWriter) ReplaceRecordSet(_ context.Context, _ dns.Credentials, key dns.ZoneRecordKey, values []dns.RecordValue) error {
	f.keys = append(f.keys, key)
	f.values = append(f.values, values)
	return f.err
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sigOptions() Options {
	return Options{
		RootDomain: "aethervtc.ai",
		Subdomain:  "sig",
		Target:     "aether-vtc-signatures.vercel.app",
	}
}

func TestOptions_Desired(t *testing.T) {
	rec, err := sigOptions().Desired()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := dns.DesiredRecord{
		Key:   dns.ZoneRecordKey{RootDomain: "aethervtc.ai", Type: "CNAME", Name: "sig"},
		Value: "aether-vtc-signatures.vercel.app",
		TTL:   dns.MinTTL,
	}
	if rec != want {
		t.Errorf("expected %+v, got %+v", want, rec)
	}

	apex, err := Options{RootDomain: "Example.com.", Target: "76.76.21.21"}.Desired()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if apex.Key != (dns.ZoneRecordKey{RootDomain: "example.com", Type: "A", Name: "@"}) {
		t.Errorf("unexpected apex key %s", apex.Key)
	}
}

func TestOptions_DesiredErrors(t *testing.T) {
	tests := map[string]Options{
		"missing root domain": {Target: "76.76.21.21"},
		"missing target":      {RootDomain: "example.com"},
		"ttl below minimum":   {RootDomain: "example.com", Target: "76.76.21.21", TTL: 60},
	}
	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := opts.Desired(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestWorkflow_Run(t *testing.T) {
	reg := &fakeRegistrar{}
	w := &fakeWriter{}
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "domain-config.json")

	wf := &Workflow{
		Registrar:   reg,
		Writer:      w,
		Credentials: dns.Credentials{Key: "k", Secret: "s"},
		Out:         &out,
		Log:         logrtesting.NewTestLogger(t),
		Now:         func() time.Time { return fixedNow },
	}
	opts := sigOptions()
	opts.ConfigPath = path

	rep, err := wf.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rep.Registered || rep.RegisterErr != nil {
		t.Errorf("expected registration to succeed, got %+v", rep)
	}
	if !rep.Result.Applied() {
		t.Fatalf("expected Applied, got %v", rep.Result)
	}
	if len(reg.domains) != 1 || reg.domains[0] != "sig.aethervtc.ai" {
		t.Errorf("unexpected registered domains %v", reg.domains)
	}
	if len(w.keys) != 1 || len(w.values[0]) != 1 {
		t.Fatalf("expected one single-value replace, got %v", w.values)
	}
	if w.values[0][0] != (dns.RecordValue{Data: "aether-vtc-signatures.vercel.app", TTL: 600}) {
		t.Errorf("unexpected value %+v", w.values[0][0])
	}
	if strings.Contains(out.String(), "Manual DNS setup") {
		t.Error("did not expect manual instructions after a successful update")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected domain config to be written: %v", err)
	}
	var cfg DomainConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("invalid domain config: %v", err)
	}
	want := DomainConfig{
		Domain:     "sig.aethervtc.ai",
		Subdomain:  "sig",
		RootDomain: "aethervtc.ai",
		Target:     "aether-vtc-signatures.vercel.app",
		RecordType: "CNAME",
		TTL:        600,
		Outcome:    "applied",
		SetupDate:  fixedNow,
	}
	if !cfg.SetupDate.Equal(want.SetupDate) {
		t.Errorf("expected setupDate %v, got %v", want.SetupDate, cfg.SetupDate)
	}
	cfg.SetupDate = want.SetupDate
	if cfg != want {
		t.Errorf("expected %+v, got %+v", want, cfg)
	}
}

func TestWorkflow_RejectedPrintsManualInstructions(t *testing.T) {
	body := `{"code":"UNABLE_TO_AUTHENTICATE","message":"Unauthorized : Could not authenticate API key/secret"}`
	w := &fakeWriter{err: &dns.APIError{StatusCode: 401, Body: body}}
	var out bytes.Buffer

	wf := &Workflow{Writer: w, Out: &out, Log: logrtesting.NewTestLogger(t)}
	rep, err := wf.Run(context.Background(), sigOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Result.Outcome != dns.RejectedByProvider || rep.Result.StatusCode != 401 {
		t.Fatalf("expected 401 rejection, got %v", rep.Result)
	}

	text := out.String()
	for _, want := range []string{
		"Step 1: skipping platform registration",
		"UNABLE_TO_AUTHENTICATE",
		"Manual DNS setup",
		"Type:  CNAME",
		"Name:  sig",
		"Value: aether-vtc-signatures.vercel.app",
		"TTL:   600",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "site is available") {
		t.Error("did not expect availability message after a failed update")
	}
}

func TestWorkflow_RegistrationFailureContinues(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"already registered": {fmt.Errorf("vercel: sig.aethervtc.ai: %w", platform.ErrDomainExists), "already registered"},
		"other failure":      {errors.New("not authorized"), "add sig.aethervtc.ai manually"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			reg := &fakeRegistrar{err: tt.err}
			w := &fakeWriter{}
			var out bytes.Buffer

			wf := &Workflow{Registrar: reg, Writer: w, Out: &out, Log: logrtesting.NewTestLogger(t)}
			rep, err := wf.Run(context.Background(), sigOptions())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rep.Registered || rep.RegisterErr == nil {
				t.Errorf("expected registration error in report, got %+v", rep)
			}
			if !rep.Result.Applied() {
				t.Errorf("expected DNS step to run and apply, got %v", rep.Result)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.want, out.String())
			}
		})
	}
}

func TestWorkflow_TransportError(t *testing.T) {
	w := &fakeWriter{err: errors.New("dial tcp: connection refused")}
	wf := &Workflow{Writer: w, Log: logrtesting.NewTestLogger(t)}

	rep, err := wf.Run(context.Background(), sigOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Result.Outcome != dns.TransportError {
		t.Fatalf("expected TransportError, got %v", rep.Result)
	}
}

func TestWorkflow_InvalidOptions(t *testing.T) {
	w := &fakeWriter{}
	wf := &Workflow{Writer: w, Log: logrtesting.NewTestLogger(t)}

	if _, err := wf.Run(context.Background(), Options{RootDomain: "example.com"}); err == nil {
		t.Fatal("expected error for missing target")
	}
	if len(w.keys) != 0 {
		t.Error("expected no provider calls for invalid options")
	}
}
