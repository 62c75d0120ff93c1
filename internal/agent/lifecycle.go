package agent

import (
	"time"
)

// Tracer measures plugin lifecycle phases. The host framework fires four
// events per (plugin, phase) invocation: start, end, and — only for
// asynchronous invocations — asyncStart and asyncEnd.
//
// The tricky part is that end fires before anyone knows whether the call was
// asynchronous. The tracer therefore defers the decision: an end event is
// held per key and only commits when a later event for that key settles the
// question (a start restarts the phase, an asyncStart pre-empts the sync
// commit and hands ownership to asyncEnd) or when the tracer closes. The
// commit always uses the timestamp captured at the end call, so deferral
// costs no accuracy. Error events are observed and discarded so a failing
// plugin cannot block timing collection for the others.
type Tracer struct {
	agg *Aggregator
	now func() time.Time

	events chan phaseEvent
	done   chan struct{}
	closed chan struct{}
}

type phaseKey struct {
	plugin string
	phase  string
}

type eventKind int

const (
	evStart eventKind = iota
	evEnd
	evAsyncStart
	evAsyncEnd
	evError
)

type phaseEvent struct {
	kind eventKind
	key  phaseKey
	at   time.Time
}

type phaseState struct {
	startTime time.Time
	isAsync   bool
	endTime   *time.Time // deferred sync end, uncommitted until settled
}

// NewTracer starts the tracer's event loop. Close must be called to flush
// any deferred commits before snapshotting.
func NewTracer(agg *Aggregator) *Tracer {
	t := &Tracer{
		agg:    agg,
		now:    time.Now,
		events: make(chan phaseEvent, 256),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go t.loop()
	return t
}

// OnStart records the wall-clock start of a phase invocation. A second start
// before the prior one resolves overwrites it (last start wins); phases run
// once per boot so this only matters for malformed event streams.
func (t *Tracer) OnStart(plugin, phase string) {
	t.send(phaseEvent{kind: evStart, key: phaseKey{plugin, phase}, at: t.now()})
}

// OnEnd records the synchronous completion signal. The duration is not
// committed yet; see the type comment for the deferral rule.
func (t *Tracer) OnEnd(plugin, phase string) {
	t.send(phaseEvent{kind: evEnd, key: phaseKey{plugin, phase}, at: t.now()})
}

// OnAsyncStart marks the phase as asynchronous, suppressing the deferred
// synchronous commit.
func (t *Tracer) OnAsyncStart(plugin, phase string) {
	t.send(phaseEvent{kind: evAsyncStart, key: phaseKey{plugin, phase}, at: t.now()})
}

// OnAsyncEnd commits the true completion time of an asynchronous phase.
func (t *Tracer) OnAsyncEnd(plugin, phase string) {
	t.send(phaseEvent{kind: evAsyncEnd, key: phaseKey{plugin, phase}, at: t.now()})
}

// OnError is intentionally a no-op beyond consuming the event.
func (t *Tracer) OnError(plugin, phase string, err error) {
	t.send(phaseEvent{kind: evError, key: phaseKey{plugin, phase}, at: t.now()})
}

// Close drains the queue, resolves outstanding deferred commits, and stops
// the loop. Safe to call once.
func (t *Tracer) Close() {
	close(t.done)
	<-t.closed
}

func (t *Tracer) send(ev phaseEvent) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

func (t *Tracer) loop() {
	defer close(t.closed)

	state := make(map[phaseKey]*phaseState)

	// A deferred end is never resolved on queue-idle: the host's OnEnd and
	// OnAsyncStart calls are separate channel sends, so the mailbox can
	// legitimately drain between them. The end stays pending on its key
	// until a later event for that key settles it, or until Close.
	handle := func(ev phaseEvent) {
		switch ev.kind {
		case evStart:
			if st := state[ev.key]; st != nil && st.endTime != nil && !st.isAsync {
				// The previous invocation completed synchronously; commit
				// it before the new one takes the key over.
				t.commit(ev.key, st.endTime.Sub(st.startTime))
			}
			state[ev.key] = &phaseState{startTime: ev.at}
		case evEnd:
			st := state[ev.key]
			if st == nil || st.isAsync {
				return
			}
			at := ev.at
			st.endTime = &at
		case evAsyncStart:
			if st := state[ev.key]; st != nil {
				st.isAsync = true
				st.endTime = nil
			}
		case evAsyncEnd:
			if st := state[ev.key]; st != nil {
				t.commit(ev.key, ev.at.Sub(st.startTime))
				delete(state, ev.key)
			}
		case evError:
			// Discarded: a failing phase must not abort the run.
		}
	}

	for {
		select {
		case ev := <-t.events:
			handle(ev)
		case <-t.done:
			// Final drain so nothing sent before Close is lost.
			for {
				select {
				case ev := <-t.events:
					handle(ev)
					continue
				default:
				}
				break
			}
			// Pending sync ends are settled now: no asyncStart can follow.
			for key, st := range state {
				if st.endTime != nil && !st.isAsync {
					t.commit(key, st.endTime.Sub(st.startTime))
				}
			}
			return
		}
	}
}

func (t *Tracer) commit(key phaseKey, d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.agg.RecordPhase(key.plugin, key.phase, float64(d)/float64(time.Millisecond))
}
