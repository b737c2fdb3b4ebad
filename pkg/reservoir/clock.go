package reservoir

import (
	"math/rand/v2"
	"time"
)

// Clock supplies the current time to Update. Injecting it keeps tests
// deterministic and decouples the reservoir from wall-clock sampling
// overhead.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Rand supplies uniform draws from the open interval (0, 1). Zero must be
// excluded by the source itself: a zero draw would divide the sample weight
// by zero and produce an unusable priority.
type Rand interface {
	Open01() float64
}

type pcgRand struct {
	src *rand.Rand
}

// NewSeededRand returns a deterministic random source for reproducible runs.
func NewSeededRand(seed1, seed2 uint64) Rand {
	return &pcgRand{src: rand.New(rand.NewPCG(seed1, seed2))}
}

// newEntropyRand returns a per-reservoir source seeded from process entropy.
func newEntropyRand() Rand {
	return &pcgRand{src: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (p *pcgRand) Open01() float64 {
	for {
		// Float64 is [0, 1); reject the single excluded point.
		if u := p.src.Float64(); u > 0 {
			return u
		}
	}
}
