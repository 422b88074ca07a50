package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/config"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns/verify"
)

func newVerifyCmd() *cobra.Command {
	var (
		entry    config.RecordEntry
		resolver verify.Resolver
		api      bool
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a record is served by a resolver and, optionally, stored at the provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			desired, err := entry.Desired()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if api {
				c, creds, err := godaddyClient(ctrl.Log.WithName("dns-godaddy"))
				if err != nil {
					return err
				}
				desired.TTL = 0
				ok, err := dns.ReadBack(ctx, c, creds, desired)
				if err != nil {
					return err
				}
				fmt.Printf("provider: %s matches=%t\n", desired.Key, ok)
			}

			ans, err := resolver.Check(ctx, desired)
			if err != nil {
				return err
			}
			fmt.Printf("resolver %s: %s %s -> %v\n", serverOrDefault(resolver.Server), desired.Key.FQDN(), desired.Key.Type, ans.Values)
			if !ans.Matches {
				return fmt.Errorf("%s does not resolve to %s yet", desired.Key.FQDN(), desired.Value)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&entry.Hostname, "hostname", "", "fully qualified hostname")
	f.StringVar(&entry.RootDomain, "domain", "", "registered root domain")
	f.StringVar(&entry.Name, "name", "", "host label within the root domain")
	f.StringVar(&entry.Type, "type", "", "record type (default derived from --value)")
	f.StringVar(&entry.Value, "value", "", "expected record data")
	f.StringVar(&resolver.Server, "resolver", verify.DefaultServer, "DNS server to query (host:port)")
	f.StringVar(&resolver.Net, "net", "udp", "transport for the query (udp or tcp)")
	f.DurationVar(&resolver.Timeout, "timeout", 5*time.Second, "query timeout")
	f.BoolVar(&api, "api", false, "also read the record set back from the provider API")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func serverOrDefault(s string) string {
	if s == "" {
		return verify.DefaultServer
	}
	return s
}
