package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/callcache/pagecache"
)

var countCmd = &cobra.Command{
	Use:   "count URL...",
	Short: "Show how many times each URL was requested",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close(false)

	pages, err := pagecache.New(e.store)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, url := range args {
		n, err := pages.AccessCount(ctx, url)
		if err != nil {
			return fmt.Errorf("reading access count of %s: %w", url, err)
		}
		fmt.Printf("%-6d %s\n", n, url)
	}
	return nil
}
