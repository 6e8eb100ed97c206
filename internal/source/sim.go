package source

import (
	"math"
	"math/rand"
	"sync"

	"github.com/apex-data/race.engineer/internal/telemetry"
	"github.com/apex-data/race.engineer/internal/timeutil"
)

// Simulator fabricates plausible lap telemetry when no real feed is
// available. Every sample it produces is flagged Synthetic so downstream
// consumers can tell the difference. Given the same seed and tick sequence
// it is fully deterministic.
type Simulator struct {
	clock timeutil.Clock
	rng   *rand.Rand

	mu        sync.Mutex
	connected bool
	elapsed   float64 // session seconds, advanced per Read
	step      float64
	fuel      float64
	lap       int
	lapStart  float64
	bestLap   *float64
}

// Simulator tuning. One lap of the synthetic circuit takes ~95 s and the
// car starts on a 50 L tank burning roughly 0.03 L/s.
const (
	simLapSeconds = 95.0
	simInitFuel   = 50.0
	simBurnPerSec = 0.03
	simStep       = 0.1 // session seconds advanced per Read
)

// NewSimulator creates a simulator seeded for reproducibility.
func NewSimulator(seed int64, clock timeutil.Clock) *Simulator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Simulator{
		clock: clock,
		rng:   rand.New(rand.NewSource(seed)),
		step:  simStep,
		fuel:  simInitFuel,
		lap:   1,
	}
}

// Connect always succeeds.
func (s *Simulator) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

// Disconnect stops the simulator.
func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// IsConnected reports whether Connect has been called.
func (s *Simulator) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Read advances the synthetic session by one step and returns the sample
// at that instant.
func (s *Simulator) Read() (*telemetry.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil, nil
	}

	s.elapsed += s.step
	lapTime := s.elapsed - s.lapStart
	if lapTime >= simLapSeconds {
		// Completed lap; jitter keeps lap times from being identical.
		completed := lapTime + s.rng.Float64()*0.8 - 0.4
		if s.bestLap == nil || completed < *s.bestLap {
			s.bestLap = &completed
		}
		s.lap++
		s.lapStart = s.elapsed
		lapTime = 0
	}

	// Speed follows the lap phase: slow corners at the extremes of the
	// sine, a long straight at the peak.
	phase := 2 * math.Pi * lapTime / simLapSeconds
	speed := 170 + 80*math.Sin(phase) + s.rng.Float64()*4
	if speed < 60 {
		speed = 60
	}
	rpm := int(4500 + speed*28 + s.rng.Float64()*150)
	gear := int(speed/45) + 2
	if gear > 8 {
		gear = 8
	}

	s.fuel -= simBurnPerSec * s.step
	if s.fuel < 0 {
		s.fuel = 0
	}

	// Tires warm asymptotically toward race temperature.
	warm := 1 - math.Exp(-s.elapsed/120)
	base := 60 + 28*warm
	temps := telemetry.TireTemps{
		FrontLeft:  base + s.rng.Float64()*2,
		FrontRight: base + 1.5 + s.rng.Float64()*2,
		RearLeft:   base - 2 + s.rng.Float64()*2,
		RearRight:  base - 0.5 + s.rng.Float64()*2,
	}

	sample := &telemetry.Sample{
		Timestamp:  float64(s.clock.Now().UnixNano()) / 1e9,
		Speed:      telemetry.Float64(speed),
		RPM:        telemetry.Int(rpm),
		Gear:       telemetry.Int(gear),
		Fuel:       telemetry.Float64(s.fuel),
		TireTemps:  &temps,
		LapTime:    telemetry.Float64(lapTime),
		CurrentLap: telemetry.Int(s.lap),
		Position:   telemetry.Int(3),
		Synthetic:  true,
	}
	if s.bestLap != nil {
		sample.BestLapTime = telemetry.Float64(*s.bestLap)
	}
	return sample, nil
}
