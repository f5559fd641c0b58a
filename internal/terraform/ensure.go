package terraform

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/hashicorp/go-version"
	install "github.com/hashicorp/hc-install"
	"github.com/hashicorp/hc-install/fs"
	"github.com/hashicorp/hc-install/product"
	"github.com/hashicorp/hc-install/releases"
	"github.com/hashicorp/hc-install/src"
)

// EnsureTerraform resolves a terraform binary. Resolution order:
// explicit path, PATH lookup, then a one-off install of fallbackVersion
// via the HashiCorp releases site.
func EnsureTerraform(ctx context.Context, explicitPath, fallbackVersion string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNoTerraformBinary, explicitPath)
		}
		return explicitPath, nil
	}

	if path, err := exec.LookPath("terraform"); err == nil {
		return path, nil
	}

	if fallbackVersion == "" {
		return "", ErrNoTerraformBinary
	}

	ver, err := version.NewVersion(fallbackVersion)
	if err != nil {
		return "", fmt.Errorf("invalid terraform version %q: %w", fallbackVersion, err)
	}

	// The installed binary stays for the life of the process; no
	// installer.Remove here.
	installer := install.NewInstaller()

	path, err := installer.Ensure(ctx, []src.Source{
		&fs.AnyVersion{Product: &product.Terraform},
		&releases.ExactVersion{Product: product.Terraform, Version: ver},
	})
	if err != nil {
		return "", fmt.Errorf("install terraform %s: %w", fallbackVersion, err)
	}
	return path, nil
}
