package reservoir

import (
	"fmt"
	"iter"
	"math"
	"sort"
)

type snapshotEntry struct {
	value int64
	// normWeight is the sample weight normalized so the weights of all
	// entries sum to 1.
	normWeight float64
	// quantile is the exclusive prefix sum of normalized weights ahead of
	// this entry; the first entry always carries 0.
	quantile float64
}

// Snapshot is an immutable view of a reservoir's contents at one instant,
// sorted ascending by value, from which order statistics are derived.
// A Snapshot holds no reference back to the reservoir it was built from.
type Snapshot struct {
	entries []snapshotEntry
	count   uint64
}

// Snapshot captures the current state of the reservoir.
func (r *Reservoir) Snapshot() *Snapshot {
	entries := make([]snapshotEntry, 0, len(r.samples))
	for _, ks := range r.samples {
		entries = append(entries, snapshotEntry{
			value:      ks.sample.value,
			normWeight: ks.sample.weight,
		})
	}

	// Sort by value only; aggregate statistics are order independent but
	// quantile lookups depend on this ordering.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].value < entries[j].value
	})

	var sum float64
	for i := range entries {
		sum += entries[i].normWeight
	}
	switch {
	case sum > 0:
		for i := range entries {
			entries[i].normWeight /= sum
		}
	case len(entries) > 0:
		// Every retained weight underflowed to zero after an extreme
		// idle gap; fall back to equal weights so quantiles stay finite.
		equal := 1 / float64(len(entries))
		for i := range entries {
			entries[i].normWeight = equal
		}
	}

	cum := 0.0
	for i := range entries {
		entries[i].quantile = cum
		cum += entries[i].normWeight
	}

	return &Snapshot{entries: entries, count: r.count}
}

// Value returns the value at the given quantile in the snapshot, or 0 if the
// snapshot is empty. Value(0.5) is the approximate weighted median.
//
// Panics if q is not between 0 and 1 inclusive.
func (s *Snapshot) Value(q float64) int64 {
	if q < 0 || q > 1 {
		panic(fmt.Sprintf("reservoir: quantile %v out of range [0, 1]", q))
	}
	if len(s.entries) == 0 {
		return 0
	}

	idx := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].quantile >= q
	})
	if idx == len(s.entries) {
		idx = len(s.entries) - 1
	}
	return s.entries[idx].value
}

// Min returns the smallest value in the snapshot, or 0 if it is empty.
func (s *Snapshot) Min() int64 {
	if len(s.entries) == 0 {
		return 0
	}
	return s.entries[0].value
}

// Max returns the largest value in the snapshot, or 0 if it is empty.
func (s *Snapshot) Max() int64 {
	if len(s.entries) == 0 {
		return 0
	}
	return s.entries[len(s.entries)-1].value
}

// Mean returns the weighted mean of the values in the snapshot, or 0 if it
// is empty.
func (s *Snapshot) Mean() float64 {
	var mean float64
	for _, e := range s.entries {
		mean += float64(e.value) * e.normWeight
	}
	return mean
}

// StdDev returns the weighted population standard deviation of the values in
// the snapshot around Mean, or 0 if it holds fewer than two entries.
func (s *Snapshot) StdDev() float64 {
	if len(s.entries) <= 1 {
		return 0
	}

	mean := s.Mean()
	var variance float64
	for _, e := range s.entries {
		diff := float64(e.value) - mean
		variance += e.normWeight * diff * diff
	}
	return math.Sqrt(variance)
}

// Count returns the total number of values inserted into the reservoir at
// the time the snapshot was taken. It is an exact count, not bounded by the
// reservoir size.
func (s *Snapshot) Count() uint64 {
	return s.count
}

// Len returns the number of entries in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Values returns an iterator over the distinct values in the snapshot in
// ascending order, each paired with its aggregated normalized weight.
// Entries sharing a value are merged by summing their weights.
func (s *Snapshot) Values() iter.Seq2[int64, float64] {
	return func(yield func(int64, float64) bool) {
		for i := 0; i < len(s.entries); {
			v := s.entries[i].value
			var w float64
			for ; i < len(s.entries) && s.entries[i].value == v; i++ {
				w += s.entries[i].normWeight
			}
			if !yield(v, w) {
				return
			}
		}
	}
}
