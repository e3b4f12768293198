package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/callcache"
)

var replayCmd = &cobra.Command{
	Use:   "replay [OPERATION]",
	Short: "Print the recorded calls of an operation",
	Long: `Print how many times an operation was called and each recorded call
with its result. OPERATION defaults to Cache.Store.

Unlike demo, replay reads the store without resetting it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	id := callcache.StoreOp
	if len(args) == 1 {
		id = args[0]
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close(false)

	if err := callcache.Replay(context.Background(), os.Stdout, e.store, id); err != nil {
		return fmt.Errorf("replaying %s: %w", id, err)
	}
	return nil
}
