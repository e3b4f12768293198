package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/discochess/callcache/benchmark/workload"
)

func TestMannWhitneyU(t *testing.T) {
	tests := []struct {
		name       string
		sample1    []float64
		sample2    []float64
		wantSignif bool
	}{
		{
			name:       "identical samples",
			sample1:    []float64{1, 2, 3, 4, 5},
			sample2:    []float64{1, 2, 3, 4, 5},
			wantSignif: false,
		},
		{
			name:       "clearly different samples",
			sample1:    []float64{1, 2, 3, 4, 5},
			sample2:    []float64{10, 11, 12, 13, 14},
			wantSignif: true,
		},
		{
			name:       "overlapping samples",
			sample1:    []float64{3, 4, 5, 6, 7},
			sample2:    []float64{4, 5, 6, 7, 8},
			wantSignif: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MannWhitneyU(tt.sample1, tt.sample2)
			if result.Significant != tt.wantSignif {
				t.Errorf("Significant = %v, want %v (p=%f)", result.Significant, tt.wantSignif, result.PValue)
			}
		})
	}
}

func TestMannWhitneyU_Empty(t *testing.T) {
	result := MannWhitneyU(nil, []float64{1, 2, 3})
	if result.U != 0 || result.Significant {
		t.Errorf("MannWhitneyU(empty) = %+v", result)
	}
}

func TestEffectSize(t *testing.T) {
	tests := []struct {
		name       string
		sample1    []float64
		sample2    []float64
		wantInterp string
	}{
		{
			name:       "large effect",
			sample1:    []float64{1, 2, 3, 4, 5},
			sample2:    []float64{10, 11, 12, 13, 14},
			wantInterp: "large",
		},
		{
			name:       "negligible effect",
			sample1:    []float64{5, 5, 5, 5, 5},
			sample2:    []float64{5.1, 5, 4.9, 5, 5},
			wantInterp: "negligible",
		},
		{
			name:       "single samples",
			sample1:    []float64{1},
			sample2:    []float64{2},
			wantInterp: "negligible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeEffectSize(tt.sample1, tt.sample2)
			if result.Interpretation != tt.wantInterp {
				t.Errorf("Interpretation = %s, want %s (d=%f)", result.Interpretation, tt.wantInterp, result.CohensD)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	stats := Describe([]float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1})

	if stats.N != 10 {
		t.Errorf("N = %d, want 10", stats.N)
	}
	if stats.Mean != 5.5 {
		t.Errorf("Mean = %f, want 5.5", stats.Mean)
	}
	if stats.Min != 1 || stats.Max != 10 {
		t.Errorf("Min, Max = %f, %f; want 1, 10", stats.Min, stats.Max)
	}
	if stats.P50 != 5 {
		t.Errorf("P50 = %f, want 5", stats.P50)
	}
	if stats.P99 != 10 {
		t.Errorf("P99 = %f, want 10", stats.P99)
	}
}

func TestDescribe_Single(t *testing.T) {
	stats := Describe([]float64{3})
	if stats.StdDev != 0 || stats.P90 != 3 {
		t.Errorf("Describe([3]) = %+v", stats)
	}
}

func TestDescribe_Empty(t *testing.T) {
	if stats := Describe(nil); stats.N != 0 {
		t.Errorf("N = %d, want 0", stats.N)
	}
}

func TestBootstrapConfidenceInterval(t *testing.T) {
	sample1 := []float64{1, 2, 3, 4, 5}
	sample2 := []float64{6, 7, 8, 9, 10}

	result := BootstrapConfidenceInterval(sample1, sample2, 1000, 0.95)

	if math.Abs(result.MeanDiff-(-5)) > 1e-9 {
		t.Errorf("MeanDiff = %f, want -5", result.MeanDiff)
	}
	if result.LowerBound > result.MeanDiff || result.UpperBound < result.MeanDiff {
		t.Errorf("CI [%f, %f] does not contain mean diff %f", result.LowerBound, result.UpperBound, result.MeanDiff)
	}
	if result.UpperBound >= 0 {
		t.Errorf("UpperBound = %f, want < 0 for disjoint samples", result.UpperBound)
	}

	again := BootstrapConfidenceInterval(sample1, sample2, 1000, 0.95)
	if *again != *result {
		t.Error("bootstrap is not reproducible")
	}
}

func TestCompare(t *testing.T) {
	fast := &workload.Result{Name: "memory"}
	slow := &workload.Result{Name: "redis"}
	for i := 0; i < 30; i++ {
		fast.Latencies = append(fast.Latencies, time.Duration(10+i%3)*time.Microsecond)
		slow.Latencies = append(slow.Latencies, time.Duration(200+i%5)*time.Microsecond)
	}

	c := Compare(fast, slow, 500, 0.95)
	if c.Faster != "memory" || !c.Confident {
		t.Errorf("Faster = %q, Confident = %v; want memory, true", c.Faster, c.Confident)
	}
	if c.Summary() == "" {
		t.Error("Summary() is empty")
	}

	if all := CompareAll([]*workload.Result{fast, slow, fast}, 100, 0.95); len(all) != 2 {
		t.Errorf("CompareAll() = %d comparisons, want 2", len(all))
	}
	if CompareAll([]*workload.Result{fast}, 100, 0.95) != nil {
		t.Error("CompareAll() with one result should be nil")
	}
}
