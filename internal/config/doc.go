// Package config defines the settings of an audit run and loads them from
// the environment and from HCL policy files.
//
// # Precedence
//
// Values are layered, lowest first:
//  1. Defaults (Default)
//  2. ORGAUDIT_* environment variables (FromEnv)
//  3. An HCL policy file (LoadPolicyFile)
//  4. Explicit command-line flags, applied by the cli package
//
// # Policy Files
//
// A policy file may contain a `policy` block and an `analysis` block, every
// attribute optional:
//
//	policy {
//	  min_salary_ratio    = 1.2
//	  max_salary_ratio    = 1.5
//	  max_reporting_depth = 4
//	}
//
//	analysis {
//	  workers    = max(cpus - 1, 1)
//	  batch_size = 10000
//	}
//
// Expressions can read the variable `cpus` (logical CPUs of the host) and call
// `min`, `max`, `floor` and `ceil`.
package config
