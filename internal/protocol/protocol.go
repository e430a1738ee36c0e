// Package protocol implements the event protocol between a client and its
// rainfall simulation.
//
// Each connection runs one Protocol loop. The loop consumes a fair merge of
// the inbound client commands and a self-produced feedback stream of tick
// triggers, mutates the owned simulation, and emits a progress snapshot on
// every state change. Ticks re-enqueue themselves onto the feedback channel
// (delayed in real-time mode, immediately in fast-forward), so a single
// loop drives both modes without a recurring timer or extra synchronization. Stale
// ticks left over after a pause or a mode switch are discarded by the
// handler preconditions.
package protocol

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/floodcast/floodcast/internal/infrastructure/monitoring"
	"github.com/floodcast/floodcast/internal/simulation"
)

const (
	// ForwardHours is the amount of simulated time processed per
	// fast-forward tick.
	ForwardHours = 1000.0

	// StepDelay is the real-time delay between ticks.
	StepDelay = 200 * time.Millisecond

	// FeedbackChannelSize is the capacity of the feedback channel carrying
	// self-scheduled ticks.
	FeedbackChannelSize = 1024
)

// Protocol is the state machine driving one simulation for one connection.
// It owns the simulation exclusively; all handling happens on the goroutine
// that calls Run, so no locking is needed.
type Protocol struct {
	sim       *simulation.Simulation
	sessionID string
	observers *monitoring.Manager
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithSessionID attaches a session identifier used in observer
// notifications and log traces.
func WithSessionID(id string) Option {
	return func(p *Protocol) {
		p.sessionID = id
	}
}

// WithObservers attaches an observer manager notified on state changes.
// A nil manager leaves the default empty one in place.
func WithObservers(observers *monitoring.Manager) Option {
	return func(p *Protocol) {
		if observers != nil {
			p.observers = observers
		}
	}
}

// New creates a Protocol over the given simulation.
func New(sim *simulation.Simulation, opts ...Option) *Protocol {
	p := &Protocol{
		sim:       sim,
		observers: monitoring.NewManager(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes events until the inbound or feedback channel closes or the
// context is canceled. Inbound carries decoded client commands; outbound
// receives the events to deliver to the client. The feedback loop is passed
// as its two halves so tests can intercept it; production wires both to the
// same channel, created with FeedbackChannelSize capacity.
func (p *Protocol) Run(ctx context.Context, inbound <-chan Event, outbound chan<- Event, feedbackOut chan<- Event, feedbackIn <-chan Event) error {
	for {
		var (
			event Event
			ok    bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok = <-inbound:
		case event, ok = <-feedbackIn:
		}
		if !ok {
			return nil
		}

		log.Debug().Str("session_id", p.sessionID).Str("event", string(event.Kind)).Msg("recv")
		if !p.handle(ctx, event, outbound, feedbackOut) {
			return ctx.Err()
		}
	}
}

// handle applies one event to the simulation. It reports false when the
// context died while delivering an event, which terminates the loop.
func (p *Protocol) handle(ctx context.Context, event Event, outbound, feedback chan<- Event) bool {
	switch event.Kind {
	case KindStart:
		if !validStart(event.Start) {
			log.Debug().Str("session_id", p.sessionID).Msg("dropping invalid start")
			return true
		}
		p.sim.Start(event.Start.Landscape, event.Start.Hours)
		p.observers.NotifyStarted(p.sessionID, len(event.Start.Landscape), event.Start.Hours)
		if !p.sendProgress(ctx, outbound) {
			return false
		}
		p.scheduleDelayed(ctx, feedback, Event{Kind: KindStep}, StepDelay)

	case KindStep:
		if !p.sim.IsRunning() || p.sim.IsFastForward() {
			return true
		}
		p.sim.Step()
		if !p.sendProgress(ctx, outbound) {
			return false
		}
		if p.sim.IsFinished() {
			p.observers.NotifyFinished(p.sessionID, p.sim.Time())
		} else {
			p.scheduleDelayed(ctx, feedback, Event{Kind: KindStep}, StepDelay)
		}

	case KindForward:
		p.sim.StartForward()
		if p.sim.IsFastForward() {
			p.observers.NotifyFastForward(p.sessionID, p.sim.Time())
		}
		if !p.sendProgress(ctx, outbound) {
			return false
		}
		if !p.send(ctx, feedback, Event{Kind: KindForwardStep}) {
			return false
		}

	case KindForwardStep:
		if !p.sim.IsRunning() || !p.sim.IsFastForward() {
			return true
		}
		p.sim.Forward(ForwardHours)
		if !p.sendProgress(ctx, outbound) {
			return false
		}
		if p.sim.IsFinished() {
			p.observers.NotifyFinished(p.sessionID, p.sim.Time())
		} else if !p.send(ctx, feedback, Event{Kind: KindForwardStep}) {
			return false
		}

	case KindPause:
		p.sim.Pause()
		p.observers.NotifyPaused(p.sessionID, p.sim.Time())
		if !p.sendProgress(ctx, outbound) {
			return false
		}

	case KindResume:
		p.sim.Resume()
		if p.sim.IsRunning() {
			p.observers.NotifyResumed(p.sessionID, p.sim.Time())
		}
		if !p.sendProgress(ctx, outbound) {
			return false
		}
		if !p.send(ctx, feedback, Event{Kind: KindStep}) {
			return false
		}
	}

	return true
}

// sendProgress emits the current simulation state to the client.
func (p *Protocol) sendProgress(ctx context.Context, outbound chan<- Event) bool {
	progress := NewProgress(p.sim.IsRunning(), p.sim.Time(), p.sim.Levels())
	p.observers.NotifyProgress(p.sessionID, p.sim.IsRunning(), p.sim.Time())
	return p.send(ctx, outbound, progress)
}

// send delivers an event, yielding to the context if the receiver applies
// backpressure.
func (p *Protocol) send(ctx context.Context, ch chan<- Event, event Event) bool {
	log.Debug().Str("session_id", p.sessionID).Str("event", string(event.Kind)).Msg("send")
	select {
	case ch <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// scheduleDelayed enqueues an event onto the feedback channel after the
// delay, without blocking the loop.
func (p *Protocol) scheduleDelayed(ctx context.Context, feedback chan<- Event, event Event, delay time.Duration) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			p.send(ctx, feedback, event)
		case <-ctx.Done():
		}
	}()
}

// validStart rejects start commands with no parameters or a rain duration
// that is negative or not a number. The landscape itself needs no checks:
// the wire type already constrains elevations to unsigned integers.
func validStart(params *StartParams) bool {
	return params != nil && params.Hours >= 0 && !math.IsNaN(params.Hours)
}
