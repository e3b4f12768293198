// Package reporting renders benchmark results.
package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/discochess/callcache/benchmark/analysis"
	"github.com/discochess/callcache/benchmark/workload"
)

// MarkdownReport writes benchmark reports in Markdown.
type MarkdownReport struct {
	w   io.Writer
	now func() time.Time
}

// NewMarkdownReport creates a Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w, now: time.Now}
}

// WriteHeader writes the report title and generation time.
func (r *MarkdownReport) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", r.now().Format(time.RFC3339))
}

// WriteMethodology describes how the samples were taken.
func (r *MarkdownReport) WriteMethodology(ops, concurrency int) {
	fmt.Fprintln(r.w, "## Methodology")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Operations per workload:** %d\n", ops)
	fmt.Fprintf(r.w, "- **Concurrency:** %d\n", concurrency)
	fmt.Fprintln(r.w, "- **Sample:** one Store plus RetrieveText round trip, or one GetPage call")
	fmt.Fprintln(r.w, "- **Statistical tests:** Mann-Whitney U (non-parametric), Cohen's d effect size")
	fmt.Fprintln(r.w)
}

// WriteSummaryTable writes one row of latency percentiles per result.
func (r *MarkdownReport) WriteSummaryTable(results []*workload.Result) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Workload | Samples | Errors | Mean | P50 | P90 | P99 | Ops/s |")
	fmt.Fprintln(r.w, "|----------|---------|--------|------|-----|-----|-----|-------|")

	for _, res := range results {
		s := analysis.Describe(res.Micros())
		fmt.Fprintf(r.w, "| %s | %d | %d | %s | %s | %s | %s | %.0f |\n",
			res.Name, s.N, res.Errors,
			micros(s.Mean), micros(s.P50), micros(s.P90), micros(s.P99),
			res.Throughput())
	}
	fmt.Fprintln(r.w)
}

// WriteComparison writes a detailed comparison section.
func (r *MarkdownReport) WriteComparison(c *analysis.Comparison) {
	fmt.Fprintf(r.w, "## %s vs %s\n\n", c.Name1, c.Name2)

	fmt.Fprintln(r.w, "### Descriptive Statistics")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Metric | "+c.Name1+" | "+c.Name2+" |")
	fmt.Fprintln(r.w, "|--------|"+strings.Repeat("-", len(c.Name1)+2)+"|"+strings.Repeat("-", len(c.Name2)+2)+"|")
	fmt.Fprintf(r.w, "| Mean | %s | %s |\n", micros(c.Stats1.Mean), micros(c.Stats2.Mean))
	fmt.Fprintf(r.w, "| P50 | %s | %s |\n", micros(c.Stats1.P50), micros(c.Stats2.P50))
	fmt.Fprintf(r.w, "| P99 | %s | %s |\n", micros(c.Stats1.P99), micros(c.Stats2.P99))
	fmt.Fprintf(r.w, "| Std Dev | %s | %s |\n", micros(c.Stats1.StdDev), micros(c.Stats2.StdDev))
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Statistical Analysis")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Mann-Whitney U:** %.2f (z=%.2f, p=%.4f)\n",
		c.MannWhitney.U, c.MannWhitney.Z, c.MannWhitney.PValue)
	fmt.Fprintf(r.w, "- **Effect size (Cohen's d):** %.2f (%s)\n",
		c.EffectSize.CohensD, c.EffectSize.Interpretation)
	fmt.Fprintf(r.w, "- **%.0f%% CI for mean difference:** [%s, %s]\n",
		c.BootstrapCI.Confidence*100, micros(c.BootstrapCI.LowerBound), micros(c.BootstrapCI.UpperBound))
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Conclusion")
	fmt.Fprintln(r.w)
	if c.Confident {
		fmt.Fprintf(r.w, "**%s** is significantly faster than %s (p < 0.05, effect size: %s).\n",
			c.Faster, other(c.Faster, c.Name1, c.Name2), c.EffectSize.Interpretation)
	} else {
		fmt.Fprintln(r.w, "No statistically significant latency difference (p >= 0.05).")
	}
	fmt.Fprintln(r.w)
}

func other(name, a, b string) string {
	if name == a {
		return b
	}
	return a
}

// WriteDistributionChart writes an ASCII latency histogram.
func (r *MarkdownReport) WriteDistributionChart(res *workload.Result) {
	fmt.Fprintf(r.w, "### %s latency distribution\n\n", res.Name)
	fmt.Fprintln(r.w, "```")

	lo, width, hist := makeHistogram(res.Micros(), 10)
	maxCount := 0
	for _, n := range hist {
		maxCount = max(maxCount, n)
	}

	const barWidth = 40
	for i, n := range hist {
		barLen := 0
		if maxCount > 0 {
			barLen = n * barWidth / maxCount
		}
		from := lo + float64(i)*width
		fmt.Fprintf(r.w, "%9s-%-9s │ %s %d\n",
			micros(from), micros(from+width), strings.Repeat("█", barLen), n)
	}

	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

// makeHistogram buckets data into equal-width bins starting at lo.
func makeHistogram(data []float64, buckets int) (lo, width float64, hist []int) {
	hist = make([]int, buckets)
	if len(data) == 0 {
		return 0, 0, hist
	}

	lo, hi := data[0], data[0]
	for _, v := range data {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	width = (hi - lo) / float64(buckets)

	for _, v := range data {
		b := int((v - lo) / width)
		if b >= buckets {
			b = buckets - 1
		}
		hist[b]++
	}
	return lo, width, hist
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by callcache-bench*")
}

func micros(us float64) string {
	return time.Duration(us * float64(time.Microsecond)).Round(100 * time.Nanosecond).String()
}
