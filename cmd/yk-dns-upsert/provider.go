package main

import (
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"github.com/olekukonko/tablewriter"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/config"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns/godaddy"
)

// godaddyClient builds the record-set client and the credentials it should
// be called with from the provider configuration.
func godaddyClient(log logr.Logger) (*godaddy.Client, dns.Credentials, error) {
	cfg, err := config.LoadProviderConfig()
	if err != nil {
		return nil, dns.Credentials{}, fmt.Errorf("unable to load provider config: %w", err)
	}
	if cfg.Provider != "godaddy" {
		return nil, dns.Credentials{}, fmt.Errorf("provider %q does not support direct record-set calls", cfg.Provider)
	}

	creds := dns.Credentials{Key: cfg.Settings["api_key"], Secret: cfg.Settings["api_secret"]}
	if creds.Empty() {
		return nil, dns.Credentials{}, fmt.Errorf("missing GoDaddy API credentials (set %s and %s)", config.EnvAPIKey, config.EnvAPISecret)
	}

	opts, err := godaddy.OptionsFromSettings(cfg.Settings)
	if err != nil {
		return nil, dns.Credentials{}, err
	}
	c, err := godaddy.New(log, opts)
	if err != nil {
		return nil, dns.Credentials{}, err
	}
	return c, creds, nil
}

// registeredProvider creates the configured provider through the registry.
func registeredProvider(log logr.Logger) (dns.Provider, *config.ProviderConfig, error) {
	cfg, err := config.LoadProviderConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to load provider config: %w", err)
	}
	p, err := dns.NewProvider(cfg.Provider, log.WithName("dns-"+cfg.Provider), cfg.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create DNS provider: %w", err)
	}
	return p, cfg, nil
}

type resultRow struct {
	record dns.DesiredRecord
	result dns.Result
}

func printResults(rows []resultRow) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Domain", "Name", "Type", "Value", "TTL", "Result"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})
	table.SetAutoWrapText(false)
	for _, r := range rows {
		table.Append([]string{
			r.record.Key.RootDomain,
			r.record.Key.Name,
			r.record.Key.Type,
			truncate(r.record.Value, 48),
			strconv.Itoa(r.record.TTL),
			r.result.String(),
		})
	}
	table.Render()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
