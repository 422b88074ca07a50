package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/config"
	_ "github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns/providers"
)

var Version = "dev"

type globalOptions struct {
	envFiles     []string
	providerPath string
	zap          zap.Options
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{zap: zap.Options{Development: true}}

	root := &cobra.Command{
		Use:           "yk-dns-upsert",
		Short:         "Upsert GoDaddy DNS record sets",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctrl.SetLogger(zap.New(zap.UseFlagOptions(&g.zap)))
			if err := config.LoadDotEnv(g.envFiles...); err != nil {
				return err
			}
			if g.providerPath != "" {
				return os.Setenv("DNS_PROVIDER_PATH", g.providerPath)
			}
			return nil
		},
	}

	zapFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	g.zap.BindFlags(zapFlags)
	root.PersistentFlags().AddGoFlagSet(zapFlags)
	root.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", nil, "env files to load before reading configuration (default .env)")
	root.PersistentFlags().StringVar(&g.providerPath, "provider-config", "", "DNS provider config file (overrides DNS_PROVIDER_PATH)")

	root.AddCommand(
		newUpsertCmd(),
		newApplyCmd(),
		newSetupDomainCmd(),
		newVerifyCmd(),
		newControllerCmd(),
	)
	return root
}
