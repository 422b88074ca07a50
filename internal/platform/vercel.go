package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// Vercel registers domains through the vercel CLI.
type Vercel struct {
	Binary  string // defaults to "vercel"
	Project string // optional project name passed to "domains add"
	Token   string // optional, passed as --token
	Runner  Runner
	Log     logr.Logger
}

// RegisterCustomDomain runs "vercel domains add <domain> [project]".
func (v *Vercel) RegisterCustomDomain(ctx context.Context, domain string) error {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return fmt.Errorf("vercel: empty domain")
	}

	args := v.args(domain)
	v.Log.Info("adding domain to vercel project", "domain", domain, "project", v.Project)

	out, err := v.runner().Run(ctx, v.binary(), args...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if strings.Contains(strings.ToLower(msg), "already") {
			return fmt.Errorf("vercel: %s: %w", domain, ErrDomainExists)
		}
		if msg != "" {
			return fmt.Errorf("vercel: domains add %s: %w: %s", domain, err, msg)
		}
		return fmt.Errorf("vercel: domains add %s: %w", domain, err)
	}
	v.Log.V(1).Info("vercel output", "output", strings.TrimSpace(string(out)))
	return nil
}

func (v *Vercel) args(domain string) []string {
	args := []string{"domains", "add", domain}
	if v.Project != "" {
		args = append(args, v.Project)
	}
	if v.Token != "" {
		args = append(args, "--token", v.Token)
	}
	return args
}

func (v *Vercel) binary() string {
	if v.Binary == "" {
		return "vercel"
	}
	return v.Binary
}

func (v *Vercel) runner() Runner {
	if v.Runner == nil {
		return ExecRunner{}
	}
	return v.Runner
}
