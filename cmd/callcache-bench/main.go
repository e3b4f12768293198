// Package main provides the callcache-bench CLI for comparing store
// backend latency and page cache hit versus miss latency.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/discochess/callcache"
	"github.com/discochess/callcache/benchmark/analysis"
	"github.com/discochess/callcache/benchmark/reporting"
	"github.com/discochess/callcache/benchmark/workload"
	"github.com/discochess/callcache/internal/store"
	"github.com/discochess/callcache/internal/store/boltstore"
	"github.com/discochess/callcache/internal/store/memstore"
	"github.com/discochess/callcache/internal/store/redisstore"
	"github.com/discochess/callcache/pagecache"
)

var (
	backendNames []string
	redisAddr    string
	ops          int
	concurrency  int
	pageURL      string
	outputFormat string
	outputFile   string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "callcache-bench",
	Short: "Benchmark callcache store backends and the page cache",
	Long: `callcache-bench measures Store plus Retrieve round-trip latency on each
store backend and compares the backends statistically. With --page-url it
also measures page cache hits against misses.

WARNING: every backend is flushed before it is measured.

Examples:
  # Compare the in-process backends
  callcache-bench run --backends memory,bolt

  # Include a local Redis and the page cache
  callcache-bench run --backends memory,redis --page-url https://example.com

  # Output as markdown report
  callcache-bench run --format markdown --output report.md`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark",
	RunE:  runBenchmark,
}

func init() {
	runCmd.Flags().StringSliceVarP(&backendNames, "backends", "b", []string{"memory", "bolt"}, "backends to compare: memory, bolt, redis")
	runCmd.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address for the redis backend")
	runCmd.Flags().IntVarP(&ops, "ops", "n", 1000, "operations per workload")
	runCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "concurrent workers for store workloads")
	runCmd.Flags().StringVar(&pageURL, "page-url", "", "URL for the page cache workload (skipped if empty)")
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format: text, markdown")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	tmp, err := os.MkdirTemp("", "callcache-bench")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	var results []*workload.Result
	for _, name := range backendNames {
		st, err := openBackend(name, tmp)
		if err != nil {
			return err
		}
		res, err := benchBackend(ctx, name, st)
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	comparisons := analysis.CompareAll(results, 10000, 0.95)

	var pageResults []*workload.Result
	if pageURL != "" {
		hits, misses, err := benchPages(ctx)
		if err != nil {
			return err
		}
		pageResults = []*workload.Result{hits, misses}
		comparisons = append(comparisons, analysis.Compare(hits, misses, 10000, 0.95))
	}

	var output io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	all := append(results, pageResults...)
	switch outputFormat {
	case "markdown":
		writeMarkdownReport(output, all, comparisons)
	default:
		writeTextReport(output, all, comparisons)
	}
	return nil
}

func openBackend(name, dir string) (store.Store, error) {
	switch strings.ToLower(name) {
	case "memory":
		return memstore.New()
	case "bolt":
		return boltstore.Open(filepath.Join(dir, "bench.bbolt"), boltstore.Options{})
	case "redis":
		return redisstore.New(redisAddr), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
}

func benchBackend(ctx context.Context, name string, st store.Store) (*workload.Result, error) {
	c, err := callcache.New(ctx, callcache.WithStore(st))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("preparing %s: %w", name, err)
	}
	defer c.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Running %d round trips on %s...\n", ops, name)
	}
	return workload.StoreRetrieve(ctx, name, c, ops, concurrency), nil
}

func benchPages(ctx context.Context) (hits, misses *workload.Result, err error) {
	mem, err := memstore.New()
	if err != nil {
		return nil, nil, err
	}
	p, err := pagecache.New(mem)
	if err != nil {
		return nil, nil, err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Requesting %s %d times...\n", pageURL, ops)
	}
	hits, misses = workload.Pages(ctx, p, pageURL, ops)
	hits.Name, misses.Name = "page hit", "page miss"
	return hits, misses, nil
}

func writeTextReport(w io.Writer, results []*workload.Result, comps []*analysis.Comparison) {
	fmt.Fprintf(w, "Callcache Latency Benchmark\n")
	fmt.Fprintf(w, "===========================\n\n")
	fmt.Fprintf(w, "Operations:  %d\n", ops)
	fmt.Fprintf(w, "Concurrency: %d\n\n", concurrency)

	fmt.Fprintf(w, "Results:\n")
	fmt.Fprintf(w, "--------\n\n")

	for _, res := range results {
		s := analysis.Describe(res.Micros())
		fmt.Fprintf(w, "%s:\n", res.Name)
		fmt.Fprintf(w, "  Samples:    %d (%d errors)\n", s.N, res.Errors)
		fmt.Fprintf(w, "  Mean:       %.1fµs\n", s.Mean)
		fmt.Fprintf(w, "  P50/P99:    %.1fµs / %.1fµs\n", s.P50, s.P99)
		fmt.Fprintf(w, "  Throughput: %.0f ops/s\n\n", res.Throughput())
	}

	if len(comps) > 0 {
		fmt.Fprintf(w, "Statistical Analysis:\n")
		fmt.Fprintf(w, "---------------------\n\n")
		for _, c := range comps {
			fmt.Fprintln(w, c.Summary())
			fmt.Fprintln(w)
		}
	}
}

func writeMarkdownReport(w io.Writer, results []*workload.Result, comps []*analysis.Comparison) {
	report := reporting.NewMarkdownReport(w)
	report.WriteHeader("Callcache Latency Benchmark")
	report.WriteMethodology(ops, concurrency)
	report.WriteSummaryTable(results)
	for _, c := range comps {
		report.WriteComparison(c)
	}
	for _, res := range results {
		report.WriteDistributionChart(res)
	}
	report.WriteFooter()
}
