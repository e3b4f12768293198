package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/discochess/callcache"
)

var demoCmd = &cobra.Command{
	Use:   "demo [VALUE...]",
	Short: "Store values, read them back and replay the store calls",
	Long: `Reset the store, store each VALUE under a fresh key, read every value
back and print the call history of Cache.Store.

Arguments that parse as integers are stored as integers, then floats,
otherwise as text. With no arguments, "foo", 42 and 3.14 are stored.

WARNING: this flushes every key in the configured store.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"foo", "42", "3.14"}
	}

	e, err := setup()
	if err != nil {
		return err
	}

	ctx := context.Background()
	cache, err := callcache.New(ctx,
		callcache.WithStore(e.store),
		callcache.WithStats(e.collector),
		callcache.WithLogger(e.logger.Named("callcache")),
	)
	if err != nil {
		e.close(false)
		return fmt.Errorf("creating cache: %w", err)
	}
	defer e.close(true)
	defer cache.Close()

	for _, arg := range args {
		value := parseValue(arg)
		key, err := cache.Store(ctx, value)
		if err != nil {
			return fmt.Errorf("storing %q: %w", arg, err)
		}

		got, err := retrieveLike(ctx, cache, key, value)
		if err != nil {
			return err
		}
		fmt.Printf("%-8T %-24v -> %s -> %v\n", value, value, key, got)
	}
	fmt.Println()

	if err := cache.Replay(ctx, os.Stdout, callcache.StoreOp); err != nil {
		return fmt.Errorf("replaying: %w", err)
	}

	if showMetrics {
		fmt.Println()
		return e.printMetrics(os.Stdout)
	}
	return nil
}

func parseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// retrieveLike reads key back with the decoder matching the stored value.
func retrieveLike(ctx context.Context, cache *callcache.Cache, key string, value any) (any, error) {
	var (
		got any
		ok  bool
		err error
	)
	switch value.(type) {
	case int64:
		got, ok, err = cache.RetrieveInt(ctx, key)
	case float64:
		got, ok, err = cache.RetrieveFloat(ctx, key)
	default:
		got, ok, err = cache.RetrieveText(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("key %s vanished", key)
	}
	return got, nil
}
