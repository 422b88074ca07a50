// Package platform registers custom domains with a deployment platform.
package platform

import (
	"context"
	"errors"
	"os/exec"
)

// ErrDomainExists is returned when the platform already knows the domain.
var ErrDomainExists = errors.New("domain already registered")

// Registrar attaches a custom domain to a deployed project.
type Registrar interface {
	RegisterCustomDomain(ctx context.Context, domain string) error
}

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
