// Package main provides the callcache CLI for storing values with recorded
// call history, replaying that history and fetching pages through the
// page cache.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
