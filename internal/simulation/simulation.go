// Package simulation advances a rainfall simulation over a landscape in
// fixed time increments, under either real-time stepping or fast-forward.
package simulation

import (
	"math"

	"github.com/floodcast/floodcast/internal/waterflow"
)

// DeltaTime is the simulated duration of one tick, in hours.
const DeltaTime = 0.05

// Simulation owns a waterflow engine plus the time and mode state that
// drives it. It is not safe for concurrent use; each instance belongs to
// exactly one protocol loop.
type Simulation struct {
	hours       float64
	running     bool
	fastForward bool
	deltaTime   float64
	time        float64
	water       *waterflow.WaterFlow
}

// New returns an idle simulation over an empty landscape.
func New() *Simulation {
	return &Simulation{
		deltaTime: DeltaTime,
		water:     waterflow.New(nil),
	}
}

// Start begins a new run: a fresh engine is built for the landscape, time
// resets to zero and the simulation is running in real-time mode.
func (s *Simulation) Start(landscape []uint32, hours float64) {
	s.hours = hours
	s.running = true
	s.fastForward = false
	s.time = 0
	s.water = waterflow.New(landscape)
}

// Pause stops the simulation and leaves fast-forward mode.
func (s *Simulation) Pause() {
	s.running = false
	s.fastForward = false
}

// Resume restarts a paused simulation in real-time mode, unless it has
// already reached its target duration.
func (s *Simulation) Resume() {
	s.running = !s.IsFinished()
	s.fastForward = false
}

// Step advances one tick. The increment is clamped to the remaining time so
// the simulation lands exactly on the target duration, and the engine
// recomputes the water distribution for the cumulative elapsed rain.
// The running state is refreshed on every call.
func (s *Simulation) Step() {
	remaining := math.Max(0, s.hours-s.time)
	deltaTime := math.Min(s.deltaTime, remaining)
	s.time += deltaTime
	s.water.Rain(s.time)
	s.running = !s.IsFinished()
}

// StartForward switches the simulation into fast-forward mode, unless it is
// already finished.
func (s *Simulation) StartForward() {
	s.fastForward = !s.IsFinished()
	s.running = !s.IsFinished()
}

// Forward steps repeatedly until the simulation finishes or the given number
// of simulated hours has elapsed.
func (s *Simulation) Forward(hours float64) {
	start := s.time
	for !s.IsFinished() && s.time-start < hours {
		s.Step()
	}
}

// IsRunning reports whether the simulation is advancing.
func (s *Simulation) IsRunning() bool {
	return s.running
}

// IsFastForward reports whether the simulation is in fast-forward mode.
func (s *Simulation) IsFastForward() bool {
	return s.fastForward
}

// IsFinished reports whether the elapsed time has reached the target hours.
func (s *Simulation) IsFinished() bool {
	return s.time >= s.hours
}

// Time returns the elapsed simulated time in hours.
func (s *Simulation) Time() float64 {
	return s.time
}

// Levels returns the current terrain plus water level per segment.
func (s *Simulation) Levels() []float64 {
	return s.water.TotalLevels()
}
