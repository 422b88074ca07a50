package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/config"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns/verify"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/setup"
)

type upsertOptions struct {
	entry    config.RecordEntry
	readBack bool
	resolver string
	manual   bool
}

func newUpsertCmd() *cobra.Command {
	o := &upsertOptions{}
	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Create or replace one record set",
		Example: `  yk-dns-upsert upsert --hostname www.example.com --type A --value 76.76.21.21
  yk-dns-upsert upsert --domain aethervtc.ai --name sig --type CNAME --value aether-vtc-signatures.vercel.app`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.entry.Hostname, "hostname", "", "fully qualified hostname (alternative to --domain/--name)")
	f.StringVar(&o.entry.RootDomain, "domain", "", "registered root domain")
	f.StringVar(&o.entry.Name, "name", "", "host label within the root domain (\"@\" for the apex)")
	f.StringVar(&o.entry.Type, "type", "", "record type (default derived from --value)")
	f.StringVar(&o.entry.Value, "value", "", "record data: IP address or target hostname")
	f.IntVar(&o.entry.TTL, "ttl", dns.MinTTL, "TTL in seconds")
	f.BoolVar(&o.readBack, "verify", false, "read the record set back from the API after applying")
	f.StringVar(&o.resolver, "resolver", "", "also query this DNS server (host:port) for the record")
	f.BoolVar(&o.manual, "manual-fallback", true, "print manual setup instructions when the update fails")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func (o *upsertOptions) run(cmd *cobra.Command) error {
	log := ctrl.Log.WithName("upsert")

	desired, err := o.entry.Desired()
	if err != nil {
		return err
	}
	c, creds, err := godaddyClient(ctrl.Log.WithName("dns-godaddy"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	r := &dns.Reconciler{Writer: c, Log: log}
	res := r.Reconcile(ctx, desired, creds)
	printResults([]resultRow{{record: desired, result: res}})

	if !res.Applied() {
		if res.Outcome == dns.RejectedByProvider {
			fmt.Fprintf(os.Stderr, "provider response: %s\n", strings.TrimSpace(res.Body))
		}
		if o.manual {
			setup.WriteManualInstructions(os.Stdout, desired)
		}
		return fmt.Errorf("%s: %w", desired.Key, res.Err())
	}

	if o.readBack {
		ok, err := dns.ReadBack(ctx, c, creds, desired)
		if err != nil {
			return fmt.Errorf("reading back %s: %w", desired.Key, err)
		}
		if !ok {
			return fmt.Errorf("record set %s does not hold %q after apply", desired.Key, desired.Value)
		}
		fmt.Println("read-back: record set matches")
	}

	if o.resolver != "" {
		rv := &verify.Resolver{Server: o.resolver}
		ans, err := rv.Check(ctx, desired)
		if err != nil {
			return err
		}
		if ans.Matches {
			fmt.Printf("resolver %s: %s serves %s\n", o.resolver, desired.Key.FQDN(), desired.Value)
		} else {
			// not an error: propagation lags the API
			fmt.Printf("resolver %s: %s not yet visible (got %v)\n", o.resolver, desired.Key.FQDN(), ans.Values)
		}
	}
	return nil
}
