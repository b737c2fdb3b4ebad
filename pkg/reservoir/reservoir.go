// Package reservoir implements a bounded-memory sample of a value stream
// which exponentially weights in favor of recent values.
//
// A Reservoir ingests an unbounded stream of int64 measurements and retains
// a fixed-size randomized subset of them, biased towards recent arrivals.
// From that subset a Snapshot derives quantiles, mean, standard deviation,
// min and max, making the reservoir suitable for monitoring the current
// behavior of long running processes (request latencies, payload sizes)
// without unbounded memory use.
//
// The sampling scheme is the forward-decay priority reservoir described in
// Cormode et al. 2009: each arrival is assigned the priority
// weight(t)/u for a uniform u in (0, 1), where weight grows exponentially
// with time since a landmark epoch, and the reservoir keeps the samples with
// the highest priorities. Priorities are periodically rescaled against a new
// landmark so the decay exponent never overflows during long runs.
//
// A Reservoir is not safe for concurrent use. It assumes a single logical
// writer; callers that share one across goroutines must serialize Update and
// Snapshot calls externally.
package reservoir

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	// DefaultSize retains 1028 samples, which offers a 99.9% confidence
	// level with a 5% margin of error.
	DefaultSize = 1028

	// DefaultAlpha heavily biases the sample towards the last five minutes
	// of values.
	DefaultAlpha = 0.015

	// rescaleInterval bounds how large the decay exponent can grow before
	// priorities are renormalized against a new landmark epoch.
	rescaleInterval = time.Hour
)

// priority is a total order over sample admission keys. IEEE floats admit
// NaN, which is unordered; makePriority is the only constructor and rejects
// it, so every live key can be compared with < and ==.
type priority float64

func makePriority(v float64) priority {
	if math.IsNaN(v) {
		panic("reservoir: sample priority is NaN")
	}
	return priority(v)
}

// weightedSample is a retained measurement together with its decay weight at
// insertion (or last rescale) time.
type weightedSample struct {
	value  int64
	weight float64
}

type keyedSample struct {
	key    priority
	sample weightedSample
}

// Reservoir is an exponentially decaying weighted sample of an int64 stream.
type Reservoir struct {
	// samples is an ordered map from priority to sample, kept sorted
	// ascending by key. Keys are unique; an insertion at an existing key
	// overwrites it.
	samples []keyedSample

	size  int
	alpha float64
	count uint64

	startTime     time.Time
	nextScaleTime time.Time
	lastUpdate    time.Time

	clock Clock
	rng   Rand
}

// Option configures a Reservoir at construction time.
type Option func(*Reservoir)

// WithClock sets the clock used by Update. Defaults to the system clock.
func WithClock(c Clock) Option {
	return func(r *Reservoir) { r.clock = c }
}

// WithRand sets the uniform random source used for priority draws.
// Defaults to a per-reservoir source seeded from process entropy.
func WithRand(rng Rand) Option {
	return func(r *Reservoir) { r.rng = rng }
}

// WithStartTime sets the initial landmark epoch. Defaults to the clock's
// current time. Useful for deterministic tests that drive UpdateAt.
func WithStartTime(t time.Time) Option {
	return func(r *Reservoir) { r.startTime = t }
}

// New creates a reservoir retaining at most size samples with decay factor
// alpha. A larger size gives more accurate statistics at a higher memory
// cost; a larger alpha biases the sample more strongly towards new values.
//
// Panics if size is not positive.
func New(size int, alpha float64, opts ...Option) *Reservoir {
	if size <= 0 {
		panic(fmt.Sprintf("reservoir: size must be positive, got %d", size))
	}

	r := &Reservoir{
		size:  size,
		alpha: alpha,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.clock == nil {
		r.clock = systemClock{}
	}
	if r.rng == nil {
		r.rng = newEntropyRand()
	}
	if r.startTime.IsZero() {
		r.startTime = r.clock.Now()
	}
	r.nextScaleTime = r.startTime.Add(rescaleInterval)
	r.lastUpdate = r.startTime

	return r
}

// NewDefault creates a reservoir with DefaultSize and DefaultAlpha.
func NewDefault(opts ...Option) *Reservoir {
	return New(DefaultSize, DefaultAlpha, opts...)
}

// Update inserts a value into the reservoir at the current time.
func (r *Reservoir) Update(value int64) {
	r.UpdateAt(r.clock.Now(), value)
}

// UpdateAt inserts a value into the reservoir at the specified time.
//
// Timestamps are expected to be non-decreasing across calls. A timestamp
// earlier than the newest one previously observed is clamped to that maximum
// rather than rejected, so slightly reordered arrivals are weighed as if
// they arrived now and the decay weight stays monotone.
func (r *Reservoir) UpdateAt(t time.Time, value int64) {
	if t.Before(r.lastUpdate) {
		t = r.lastUpdate
	}
	r.lastUpdate = t

	if !t.Before(r.nextScaleTime) {
		r.rescale(t)
	}

	r.count++

	w := r.weight(t)
	key := makePriority(w / r.rng.Open01())
	r.insert(key, weightedSample{value: value, weight: w})
}

// Len returns the number of samples currently retained. It is bounded by the
// reservoir size regardless of how many values have been inserted.
func (r *Reservoir) Len() int {
	return len(r.samples)
}

// Count returns the total number of values inserted since construction.
func (r *Reservoir) Count() uint64 {
	return r.count
}

// weight computes the decay weight of an arrival at time t relative to the
// current landmark epoch. It grows without bound as t moves away from the
// epoch, which is why rescale must re-anchor the epoch periodically.
func (r *Reservoir) weight(t time.Time) float64 {
	return math.Exp(r.alpha * t.Sub(r.startTime).Seconds())
}

// insert places a sample under key, evicting the minimum-priority sample if
// the reservoir is full. A new sample that does not beat the current minimum
// loses the admission contest and is dropped.
func (r *Reservoir) insert(key priority, s weightedSample) {
	if len(r.samples) >= r.size && key <= r.samples[0].key {
		return
	}

	idx := sort.Search(len(r.samples), func(i int) bool {
		return r.samples[i].key >= key
	})

	if idx < len(r.samples) && r.samples[idx].key == key {
		// exact key collision: last writer wins
		r.samples[idx].sample = s
		return
	}

	if len(r.samples) < r.size {
		r.samples = append(r.samples, keyedSample{})
		copy(r.samples[idx+1:], r.samples[idx:])
		r.samples[idx] = keyedSample{key: key, sample: s}
		return
	}

	// Evict the minimum. key > samples[0].key here, so idx >= 1 and the
	// new sample lands at idx-1 after the shift.
	copy(r.samples[:idx-1], r.samples[1:idx])
	r.samples[idx-1] = keyedSample{key: key, sample: s}
}

// rescale renormalizes every stored priority and weight against a new
// landmark epoch at now. Multiplying a strictly ordered set of keys by a
// positive constant preserves their order, so admission decisions are
// unaffected by the rescale itself.
//
// After a multi-hour idle gap the scaling factor can underflow to zero,
// collapsing old priorities together; collapsed keys merge last-writer-wins
// and the surviving samples lose future admission contests against new
// arrivals. That is the intended decay behavior, not corruption.
func (r *Reservoir) rescale(now time.Time) {
	r.nextScaleTime = now.Add(rescaleInterval)
	factor := math.Exp(-r.alpha * now.Sub(r.startTime).Seconds())
	r.startTime = now

	rescaled := r.samples[:0]
	for _, ks := range r.samples {
		key := makePriority(float64(ks.key) * factor)
		s := weightedSample{value: ks.sample.value, weight: ks.sample.weight * factor}
		if n := len(rescaled); n > 0 && rescaled[n-1].key == key {
			rescaled[n-1].sample = s
			continue
		}
		rescaled = append(rescaled, keyedSample{key: key, sample: s})
	}
	r.samples = rescaled
}
