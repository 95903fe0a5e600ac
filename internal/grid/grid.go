// Package grid reports the state of the island power grid for the energy
// dashboard. Real telemetry is not wired in; Simulator produces plausible
// readings in the ranges the dashboard expects.
package grid

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Reading is one snapshot of grid supply and demand, in megawatts.
type Reading struct {
	TotalDemandMW    float64   `json:"totalDemandMw"`
	SolarMW          float64   `json:"solarMw"`
	WindMW           float64   `json:"windMw"`
	RenewablePercent float64   `json:"renewablePercent"`
	Timestamp        time.Time `json:"timestamp"`
}

// Feed supplies grid readings.
type Feed interface {
	Snapshot(ctx context.Context) (Reading, error)
}

var _ Feed = (*Simulator)(nil)

// Simulator draws random readings. It is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulator returns a Simulator drawing from src. A nil src seeds from
// the runtime's random source.
func NewSimulator(src rand.Source, now func() time.Time) *Simulator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if now == nil {
		now = time.Now
	}
	return &Simulator{rng: rand.New(src), now: now}
}

func (s *Simulator) Snapshot(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	s.mu.Lock()
	demand := s.uniform(900, 1200)
	solar := s.uniform(200, 400) * (1 + 0.3*s.rng.Float64())
	wind := s.uniform(50, 150)
	s.mu.Unlock()

	return Reading{
		TotalDemandMW:    round2(demand),
		SolarMW:          round2(solar),
		WindMW:           round2(wind),
		RenewablePercent: round2((solar + wind) / demand * 100),
		Timestamp:        s.now(),
	}, nil
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
