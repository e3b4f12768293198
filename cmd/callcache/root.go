package main

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags.
	configPath  string
	verbose     bool
	showMetrics bool
)

var rootCmd = &cobra.Command{
	Use:   "callcache",
	Short: "Instrumented key-value cache with call replay and a web page cache",
	Long: `Callcache stores values in Redis (or bolt, or memory) under generated
keys, counting every store call and recording its arguments and result so
the history can be replayed. It also caches fetched web pages for a short
time and counts every access to each URL.

Configuration is read from callcache.yaml (or --config) and CALLCACHE_*
environment variables.

Examples:
  # Store some values, read them back and replay the calls
  callcache demo foo 42 3.14

  # Fetch a page twice; the second read is served from the cache
  callcache page --repeat 2 https://example.com

  # Show the recorded calls without resetting the store
  callcache replay

  # Show how often a URL was requested
  callcache count https://example.com`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print collected metrics on exit")
}
