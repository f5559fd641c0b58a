package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// TFVars are the per-workspace variables the terraform configuration
// requires. All fields are mandatory; Validate names the first missing
// one.
type TFVars struct {
	ProjectID        string `hcl:"project_id,optional"`
	Region           string `hcl:"region,optional"`
	Image            string `hcl:"image,optional"`
	MinInstanceCount *int   `hcl:"min_instance_count,optional"`
	MaxInstanceCount *int   `hcl:"max_instance_count,optional"`
	ContainerMemory  string `hcl:"container_memory,optional"`
	DNSManagedZone   string `hcl:"dns_managed_zone,optional"`
}

// Validate checks that every required variable is present.
func (v *TFVars) Validate() error {
	checks := []struct {
		name    string
		missing bool
	}{
		{"project_id", v.ProjectID == ""},
		{"region", v.Region == ""},
		{"image", v.Image == ""},
		{"min_instance_count", v.MinInstanceCount == nil},
		{"max_instance_count", v.MaxInstanceCount == nil},
		{"container_memory", v.ContainerMemory == ""},
		{"dns_managed_zone", v.DNSManagedZone == ""},
	}
	for _, c := range checks {
		if c.missing {
			return fmt.Errorf("%w: %s", ErrMissingVariable, c.name)
		}
	}
	if *v.MinInstanceCount < 0 {
		return fmt.Errorf("%w: min_instance_count must be >= 0", ErrMissingVariable)
	}
	if *v.MaxInstanceCount < *v.MinInstanceCount {
		return fmt.Errorf("%w: max_instance_count must be >= min_instance_count", ErrMissingVariable)
	}
	return nil
}

// LoadTFVars parses and validates a workspace tfvars file.
func LoadTFVars(path string) (*TFVars, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingVarsFile, path)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", path, diags)
	}

	var vars TFVars
	if diags := gohcl.DecodeBody(file.Body, nil, &vars); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", path, diags)
	}

	if err := vars.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &vars, nil
}
