// Package agent is the in-process half of the profiler. A host framework
// that wants its boot profiled wraps its module loader with the agent's
// observer, routes lifecycle events into the tracer, and calls Ready once
// its server is listening. The agent stays completely inert unless the
// parent process set the profiling environment flag.
package agent

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"bootprof/internal/model"
)

// Enabled reports whether the current process was spawned in profiling mode.
func Enabled() bool {
	return os.Getenv(model.EnvFlag) == "1"
}

// Agent ties the observer, tracer, aggregator and control channel together
// for one profiled boot.
type Agent struct {
	agg      *Aggregator
	observer *Observer
	tracer   *Tracer
	endpoint *Endpoint

	batches chan []Observation
	syncs   chan chan struct{}
	settle  sync.Once
}

// Start activates the agent: it opens the control channel inherited from the
// parent, starts the batch drain and the command loop, and returns a handle
// the host uses to instrument its loader and lifecycle events.
//
// next is the host's real module loader. Start fails if the inherited
// channel descriptors are missing or malformed.
func Start(next Loader) (*Agent, error) {
	cmdFile, err := inheritedFile(model.EnvCommandFD)
	if err != nil {
		return nil, err
	}
	resultFile, err := inheritedFile(model.EnvResultFD)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		agg:     NewAggregator(),
		batches: make(chan []Observation, 16),
		syncs:   make(chan chan struct{}),
	}
	a.observer = NewObserver(next, a.batches)
	a.tracer = NewTracer(a.agg)
	a.endpoint = NewEndpoint(cmdFile, resultFile, a.collect)

	go a.drain()
	go a.endpoint.Serve()

	return a, nil
}

// Loader returns the instrumented loader the host should install in place of
// the one it passed to Start.
func (a *Agent) Loader() Loader { return a.observer }

// Tracer returns the lifecycle tracer; the host subscribes its phase events
// to the tracer's On* methods.
func (a *Agent) Tracer() *Tracer { return a.tracer }

// Ready reports boot completion to the parent with the elapsed boot time.
func (a *Agent) Ready(boot time.Duration) {
	a.endpoint.SendReady(boot)
}

// drain applies observation batches as they cross from the loader sandbox.
// A sync request empties everything already queued before acknowledging, so
// the snapshot never runs ahead of a completed flush.
func (a *Agent) drain() {
	for {
		select {
		case batch := <-a.batches:
			a.agg.Apply(batch)
		case done := <-a.syncs:
			for {
				select {
				case batch := <-a.batches:
					a.agg.Apply(batch)
					continue
				default:
				}
				break
			}
			close(done)
		}
	}
}

// collect is the snapshot operation: flush buffered observations, settle the
// tracer, and freeze the maps. Called from the endpoint on getResults. The
// settle work runs once; a repeated collect returns the frozen payload.
func (a *Agent) collect() model.ResultsPayload {
	a.settle.Do(func() {
		a.observer.Flush()
		done := make(chan struct{})
		a.syncs <- done
		<-done
		a.tracer.Close()
	})
	return a.agg.Snapshot()
}

func inheritedFile(envName string) (*os.File, error) {
	raw := os.Getenv(envName)
	if raw == "" {
		return nil, errors.New("agent: " + envName + " not set (not spawned by the profiler?)")
	}
	fd, err := strconv.Atoi(raw)
	if err != nil || fd < 3 {
		return nil, errors.New("agent: invalid descriptor in " + envName)
	}
	return os.NewFile(uintptr(fd), envName), nil
}
