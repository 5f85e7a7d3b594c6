// Package cli parses the orgaudit command line into a config.Config. It is the
// only place that knows about flags; everything downstream sees the merged
// configuration.
package cli
