// Package app wires the audit pipeline together: it reads the roster, parses
// it on the worker pool, builds the hierarchy, computes metrics and writes
// the report, decoupled from any specific entrypoint like a CLI.
package app
