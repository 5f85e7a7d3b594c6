package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/specialistvlad/orgaudit/internal/ctxlog"
)

// fileRoot decodes the top-level blocks of a policy file.
type fileRoot struct {
	Policy   *policyBlock   `hcl:"policy,block"`
	Analysis *analysisBlock `hcl:"analysis,block"`
}

type policyBlock struct {
	MinSalaryRatio    *float64 `hcl:"min_salary_ratio,optional"`
	MaxSalaryRatio    *float64 `hcl:"max_salary_ratio,optional"`
	MaxReportingDepth *int     `hcl:"max_reporting_depth,optional"`
}

type analysisBlock struct {
	Workers   *int `hcl:"workers,optional"`
	BatchSize *int `hcl:"batch_size,optional"`
}

// evalContext exposes host facts and a few numeric helpers to policy expressions.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"cpus": cty.NumberIntVal(int64(runtime.NumCPU())),
		},
		Functions: map[string]function.Function{
			"min":   stdlib.MinFunc,
			"max":   stdlib.MaxFunc,
			"floor": stdlib.FloorFunc,
			"ceil":  stdlib.CeilFunc,
		},
	}
}

// LoadPolicyFile parses the HCL file at path and applies every attribute it
// sets onto cfg. Attributes left out keep their current values.
func LoadPolicyFile(ctx context.Context, path string, cfg *Config) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Policy file loading started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse policy file %s: %w", path, diags)
	}
	return applyBody(ctx, path, file.Body, cfg)
}

// ParsePolicy is LoadPolicyFile over in-memory source. filename is only used in diagnostics.
func ParsePolicy(ctx context.Context, src []byte, filename string, cfg *Config) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse policy file %s: %w", filename, diags)
	}
	return applyBody(ctx, filename, file.Body, cfg)
}

func applyBody(ctx context.Context, name string, body hcl.Body, cfg *Config) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, evalContext(), &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode policy file %s: %w", name, diags)
	}

	if p := root.Policy; p != nil {
		if p.MinSalaryRatio != nil {
			cfg.Policy.MinSalaryRatio = *p.MinSalaryRatio
		}
		if p.MaxSalaryRatio != nil {
			cfg.Policy.MaxSalaryRatio = *p.MaxSalaryRatio
		}
		if p.MaxReportingDepth != nil {
			cfg.Policy.MaxReportingDepth = *p.MaxReportingDepth
		}
	}
	if a := root.Analysis; a != nil {
		if a.Workers != nil {
			cfg.Workers = *a.Workers
		}
		if a.BatchSize != nil {
			cfg.BatchSize = *a.BatchSize
		}
	}

	ctxlog.FromContext(ctx).Debug("Policy file applied.", "file", name, "policy", cfg.Policy, "workers", cfg.Workers, "batch_size", cfg.BatchSize)
	return nil
}
