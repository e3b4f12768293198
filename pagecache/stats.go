package pagecache

import (
	"fmt"
	"strconv"
	"strings"
)

// Stats contains page cache statistics for the current process.
// The access counters in the store cover all processes.
type Stats struct {
	Hits        int64
	Misses      int64
	FetchErrors int64 // Subset of Misses.
}

// HitRate returns the hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

func parseCount(raw []byte) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pagecache: malformed access counter %q", raw)
	}
	return n, nil
}
