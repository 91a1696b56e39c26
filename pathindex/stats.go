package pathindex

import "time"

// Stats are cumulative lookup counters plus, when instrumentation is
// enabled, incremental-maintenance accounting.
type Stats struct {
	Hits      int
	Misses    int
	Sets      int
	Cleanups  int
	HitRate   float64
	CacheSize int

	Instrumentation *Instrumentation
}

type Instrumentation struct {
	IncrementalUpdates int
	FullRebuilds       int
	NodesTouched       int
	Deletions          int
	RebuildDuration    time.Duration
}

func (ix *Index) Stats() Stats {
	s := Stats{
		Hits:      ix.hits,
		Misses:    ix.misses,
		Sets:      ix.sets,
		Cleanups:  ix.cleanups,
		CacheSize: len(ix.cache),
	}
	if total := ix.hits + ix.misses; total > 0 {
		s.HitRate = float64(ix.hits) / float64(total)
	}
	if ix.instrument {
		instr := ix.instr
		s.Instrumentation = &instr
	}
	return s
}
