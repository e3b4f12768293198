package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var pageCmd = &cobra.Command{
	Use:   "page URL...",
	Short: "Fetch pages through the page cache",
	Long: `Fetch each URL through the page cache. A cached body is served without
contacting the server; otherwise the page is fetched and cached for the
configured TTL (page.ttl, 10s by default). Every request increments the
URL's access counter, whether or not the fetch succeeds.

Examples:
  # Fetch twice; the second request is a cache hit
  callcache page --repeat 2 https://example.com

  # Print the body
  callcache page --body https://example.com`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPage,
}

var (
	pageRepeat   int
	pagePrint    bool
	pageFetcher  string
	pageCodec    string
	pageInterval time.Duration
)

func init() {
	pageCmd.Flags().IntVarP(&pageRepeat, "repeat", "n", 1, "number of requests per URL")
	pageCmd.Flags().DurationVar(&pageInterval, "interval", 0, "pause between repeated requests")
	pageCmd.Flags().BoolVar(&pagePrint, "body", false, "print page bodies")
	pageCmd.Flags().StringVar(&pageFetcher, "fetcher", "", "override page.fetcher: http, colly")
	pageCmd.Flags().StringVar(&pageCodec, "codec", "", "override page.codec: none, gzip, zstd")
	rootCmd.AddCommand(pageCmd)
}

func runPage(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close(false)

	if pageFetcher != "" {
		e.cfg.Page.Fetcher = pageFetcher
	}
	if pageCodec != "" {
		e.cfg.Page.Codec = pageCodec
	}

	pages, err := e.pageCache()
	if err != nil {
		return fmt.Errorf("creating page cache: %w", err)
	}

	ctx := context.Background()
	for _, url := range args {
		for i := 0; i < pageRepeat; i++ {
			if i > 0 && pageInterval > 0 {
				time.Sleep(pageInterval)
			}

			before := pages.Stats()
			start := time.Now()
			body, ok := pages.GetPage(ctx, url)
			elapsed := time.Since(start)

			source := "fetched"
			if pages.Stats().Hits > before.Hits {
				source = "cached"
			}
			if !ok {
				fmt.Printf("%s: unavailable (%s)\n", url, elapsed.Round(time.Microsecond))
				continue
			}
			fmt.Printf("%s: %d bytes, %s (%s)\n", url, len(body), source, elapsed.Round(time.Microsecond))
			if pagePrint {
				fmt.Println(body)
			}
		}

		count, err := pages.AccessCount(ctx, url)
		if err != nil {
			return fmt.Errorf("reading access count: %w", err)
		}
		fmt.Printf("%s: requested %d times\n", url, count)
	}

	stats := pages.Stats()
	fmt.Printf("\nHits: %d  Misses: %d  Fetch errors: %d  Hit rate: %.1f%%\n",
		stats.Hits, stats.Misses, stats.FetchErrors, stats.HitRate())

	if showMetrics {
		fmt.Println()
		return e.printMetrics(os.Stdout)
	}
	return nil
}
