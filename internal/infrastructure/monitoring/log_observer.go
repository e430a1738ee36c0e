package monitoring

import "github.com/rs/zerolog/log"

// Ensure LogObserver implements SimulationObserver
var _ SimulationObserver = (*LogObserver)(nil)

// LogObserver writes simulation lifecycle events to the global zerolog
// logger. Progress snapshots are traced at debug level to keep the default
// output quiet during long runs.
type LogObserver struct{}

// NewLogObserver creates a LogObserver.
func NewLogObserver() *LogObserver {
	return &LogObserver{}
}

func (o *LogObserver) OnStarted(sessionID string, segments int, hours float64) {
	log.Info().
		Str("session_id", sessionID).
		Int("segments", segments).
		Float64("hours", hours).
		Msg("simulation started")
}

func (o *LogObserver) OnProgress(sessionID string, running bool, time float64) {
	log.Debug().
		Str("session_id", sessionID).
		Bool("running", running).
		Float64("time", time).
		Msg("progress")
}

func (o *LogObserver) OnPaused(sessionID string, time float64) {
	log.Info().
		Str("session_id", sessionID).
		Float64("time", time).
		Msg("simulation paused")
}

func (o *LogObserver) OnResumed(sessionID string, time float64) {
	log.Info().
		Str("session_id", sessionID).
		Float64("time", time).
		Msg("simulation resumed")
}

func (o *LogObserver) OnFastForward(sessionID string, time float64) {
	log.Info().
		Str("session_id", sessionID).
		Float64("time", time).
		Msg("simulation fast-forward")
}

func (o *LogObserver) OnFinished(sessionID string, time float64) {
	log.Info().
		Str("session_id", sessionID).
		Float64("time", time).
		Msg("simulation finished")
}
