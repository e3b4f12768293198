package analysis

import (
	"fmt"

	"github.com/discochess/callcache/benchmark/workload"
)

// Comparison is a full statistical comparison of two latency samples.
type Comparison struct {
	Name1       string
	Name2       string
	Stats1      *DescriptiveStats
	Stats2      *DescriptiveStats
	MannWhitney *MannWhitneyResult
	EffectSize  *EffectSize
	BootstrapCI *BootstrapResult
	Faster      string // Name with the lower mean latency, or "tie".
	Confident   bool   // True if the difference is significant.
}

// Compare compares the latencies of two workload results, in microseconds.
func Compare(result1, result2 *workload.Result, bootstrapIterations int, confidence float64) *Comparison {
	sample1 := result1.Micros()
	sample2 := result2.Micros()

	mw := MannWhitneyU(sample1, sample2)
	c := &Comparison{
		Name1:       result1.Name,
		Name2:       result2.Name,
		Stats1:      Describe(sample1),
		Stats2:      Describe(sample2),
		MannWhitney: mw,
		EffectSize:  ComputeEffectSize(sample1, sample2),
		BootstrapCI: BootstrapConfidenceInterval(sample1, sample2, bootstrapIterations, confidence),
		Faster:      "tie",
	}

	switch {
	case c.Stats1.Mean < c.Stats2.Mean:
		c.Faster, c.Confident = c.Name1, mw.Significant
	case c.Stats2.Mean < c.Stats1.Mean:
		c.Faster, c.Confident = c.Name2, mw.Significant
	}
	return c
}

// Summary returns a human-readable summary of the comparison.
func (c *Comparison) Summary() string {
	sig := "not statistically significant"
	if c.MannWhitney.Significant {
		sig = fmt.Sprintf("statistically significant (p=%.4f)", c.MannWhitney.PValue)
	}

	return fmt.Sprintf(
		"%s vs %s:\n"+
			"  %s: mean=%.1fµs, p50=%.1fµs, p99=%.1fµs\n"+
			"  %s: mean=%.1fµs, p50=%.1fµs, p99=%.1fµs\n"+
			"  Difference: %.1fµs (%.1f%%)\n"+
			"  Effect size: %.2f (%s)\n"+
			"  Faster: %s, %s",
		c.Name1, c.Name2,
		c.Name1, c.Stats1.Mean, c.Stats1.P50, c.Stats1.P99,
		c.Name2, c.Stats2.Mean, c.Stats2.P50, c.Stats2.P99,
		c.Stats1.Mean-c.Stats2.Mean,
		safePctDiff(c.Stats1.Mean, c.Stats2.Mean),
		c.EffectSize.CohensD, c.EffectSize.Interpretation,
		c.Faster, sig,
	)
}

func safePctDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}

// CompareAll compares every result against the first one.
func CompareAll(results []*workload.Result, bootstrapIterations int, confidence float64) []*Comparison {
	if len(results) < 2 {
		return nil
	}
	out := make([]*Comparison, 0, len(results)-1)
	for _, r := range results[1:] {
		out = append(out, Compare(results[0], r, bootstrapIterations, confidence))
	}
	return out
}
