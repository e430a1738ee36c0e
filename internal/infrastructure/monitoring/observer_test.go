package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingObserver struct {
	started     int
	progress    int
	paused      int
	resumed     int
	fastForward int
	finished    int

	lastSession string
	lastTime    float64
}

func (o *recordingObserver) OnStarted(sessionID string, segments int, hours float64) {
	o.started++
	o.lastSession = sessionID
}

func (o *recordingObserver) OnProgress(sessionID string, running bool, time float64) {
	o.progress++
	o.lastTime = time
}

func (o *recordingObserver) OnPaused(sessionID string, time float64) { o.paused++ }

func (o *recordingObserver) OnResumed(sessionID string, time float64) { o.resumed++ }

func (o *recordingObserver) OnFastForward(sessionID string, time float64) { o.fastForward++ }

func (o *recordingObserver) OnFinished(sessionID string, time float64) {
	o.finished++
	o.lastTime = time
}

func TestManager_RegisterIgnoresNil(t *testing.T) {
	m := NewManager()

	m.Register(nil)

	assert.Equal(t, 0, m.Count())
}

func TestManager_FansOutToAllObservers(t *testing.T) {
	m := NewManager()
	first := &recordingObserver{}
	second := &recordingObserver{}
	m.Register(first)
	m.Register(second)

	m.NotifyStarted("session-1", 4, 2.0)
	m.NotifyProgress("session-1", true, 0.05)
	m.NotifyPaused("session-1", 0.05)
	m.NotifyResumed("session-1", 0.05)
	m.NotifyFastForward("session-1", 0.05)
	m.NotifyFinished("session-1", 2.0)

	for _, observer := range []*recordingObserver{first, second} {
		assert.Equal(t, 1, observer.started)
		assert.Equal(t, 1, observer.progress)
		assert.Equal(t, 1, observer.paused)
		assert.Equal(t, 1, observer.resumed)
		assert.Equal(t, 1, observer.fastForward)
		assert.Equal(t, 1, observer.finished)
		assert.Equal(t, "session-1", observer.lastSession)
		assert.InDelta(t, 2.0, observer.lastTime, 1e-9)
	}
}

func TestManager_NotifyWithoutObservers(t *testing.T) {
	m := NewManager()

	// Must not panic.
	m.NotifyProgress("session-1", true, 0.0)
	assert.Equal(t, 0, m.Count())
}
