package main

import (
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/platform"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/setup"
)

func newSetupDomainCmd() *cobra.Command {
	var (
		opts          setup.Options
		skipRegister  bool
		vercelBinary  string
		vercelProject string
	)
	cmd := &cobra.Command{
		Use:   "setup-domain",
		Short: "Register a custom domain with Vercel and point DNS at the deployment",
		Example: `  yk-dns-upsert setup-domain --domain aethervtc.ai --subdomain sig \
      --target aether-vtc-signatures.vercel.app --save domain-config.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, creds, err := godaddyClient(ctrl.Log.WithName("dns-godaddy"))
			if err != nil {
				return err
			}

			wf := &setup.Workflow{
				Writer:      c,
				Credentials: creds,
				Out:         os.Stdout,
				Log:         ctrl.Log.WithName("setup"),
			}
			if !skipRegister {
				wf.Registrar = &platform.Vercel{
					Binary:  vercelBinary,
					Project: vercelProject,
					Token:   os.Getenv("VERCEL_TOKEN"),
					Log:     ctrl.Log.WithName("vercel"),
				}
			}

			_, err = wf.Run(cmd.Context(), opts)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.RootDomain, "domain", "", "registered root domain")
	f.StringVar(&opts.Subdomain, "subdomain", "", "subdomain label to create")
	f.StringVar(&opts.Target, "target", "", "deployment hostname (CNAME) or IP (A)")
	f.StringVar(&opts.Type, "type", "", "record type (default derived from --target)")
	f.IntVar(&opts.TTL, "ttl", 600, "TTL in seconds")
	f.StringVar(&opts.ConfigPath, "save", "", "write the resulting domain config JSON to this path")
	f.BoolVar(&skipRegister, "skip-register", false, "do not add the domain to the Vercel project")
	f.StringVar(&vercelBinary, "vercel-binary", "vercel", "vercel CLI executable")
	f.StringVar(&vercelProject, "vercel-project", "", "Vercel project to attach the domain to")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
