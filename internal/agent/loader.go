package agent

import (
	"strings"
	"sync"
	"time"
)

// Source is what the host loader returns for a module URL. Executable is
// false for assets and data-only loads (those are resolved but never run,
// so they are not metered).
type Source struct {
	Body       []byte
	Executable bool
}

// Loader is the host framework's module loading seam. The observer wraps an
// existing Loader; it never performs resolution itself.
type Loader interface {
	// Resolve turns an import specifier into a canonical module URL.
	// parentURL is the module whose import statement is being resolved,
	// or "" for an entry point.
	Resolve(specifier, parentURL string) (string, error)

	// Load fetches the source for a canonical URL. Loading a module may
	// recursively load its dependencies through the same Loader.
	Load(url string) (Source, error)
}

// Observation is one unit of import telemetry. Edge observations carry the
// parent link discovered at resolution time; load observations carry the
// self time measured around the underlying load call.
type Observation struct {
	Edge     bool    `json:"edge,omitempty"`
	URL      string  `json:"url"`
	Parent   string  `json:"parent,omitempty"`
	LoadTime float64 `json:"loadTime,omitempty"`
}

const (
	batchSize     = 64
	flushInterval = 5 * time.Millisecond
)

// Observer wraps a Loader and reports every local-file resolution and load.
// Built-in and virtual modules pass through untouched. Observations are
// buffered and flushed as batches so a boot touching hundreds of modules
// costs a handful of channel sends, not one per module.
type Observer struct {
	next Loader
	out  chan<- []Observation
	now  func() time.Time

	mu      sync.Mutex
	pending []Observation
	timer   *time.Timer

	// In-flight load frames, innermost last. Each frame accumulates the
	// total time of its direct nested loads so the popped frame can report
	// self time rather than cumulative time.
	stack []*loadFrame
}

type loadFrame struct {
	nested time.Duration
}

// NewObserver wraps next and sends observation batches on out.
func NewObserver(next Loader, out chan<- []Observation) *Observer {
	return &Observer{next: next, out: out, now: time.Now}
}

// Resolve delegates to the wrapped loader and emits a parent edge when a
// parent context exists and the result is a local file.
func (o *Observer) Resolve(specifier, parentURL string) (string, error) {
	url, err := o.next.Resolve(specifier, parentURL)
	if err != nil {
		return url, err
	}
	if parentURL != "" && isLocalFile(url) {
		o.emit(Observation{Edge: true, URL: url, Parent: parentURL})
	}
	return url, nil
}

// Load delegates to the wrapped loader, timing the call for local files.
// The recorded time is strictly the time spent in the underlying load,
// excluding nested loads it triggered.
func (o *Observer) Load(url string) (Source, error) {
	if !isLocalFile(url) {
		return o.next.Load(url)
	}

	frame := &loadFrame{}
	o.mu.Lock()
	o.stack = append(o.stack, frame)
	o.mu.Unlock()

	startedAt := o.now()
	src, err := o.next.Load(url)
	total := o.now().Sub(startedAt)

	o.mu.Lock()
	o.stack = o.stack[:len(o.stack)-1]
	if n := len(o.stack); n > 0 {
		o.stack[n-1].nested += total
	}
	o.mu.Unlock()

	if err == nil && src.Executable {
		self := total - frame.nested
		if self < 0 {
			self = 0
		}
		o.emit(Observation{URL: url, LoadTime: float64(self) / float64(time.Millisecond)})
	}
	return src, err
}

// Flush sends any buffered observations immediately. The agent calls this
// before taking a snapshot so nothing is stuck in the buffer.
func (o *Observer) Flush() {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.mu.Unlock()

	if len(batch) > 0 {
		o.out <- batch
	}
}

func (o *Observer) emit(obs Observation) {
	o.mu.Lock()
	o.pending = append(o.pending, obs)
	full := len(o.pending) >= batchSize
	if !full && o.timer == nil {
		// First buffered observation schedules a flush shortly after the
		// current burst of loads settles.
		o.timer = time.AfterFunc(flushInterval, o.Flush)
	}
	o.mu.Unlock()

	if full {
		o.Flush()
	}
}

// isLocalFile reports whether a canonical URL refers to application code on
// disk, as opposed to a runtime built-in or virtual module.
func isLocalFile(url string) bool {
	if strings.HasPrefix(url, "file://") {
		return true
	}
	if strings.HasPrefix(url, "/") {
		return true
	}
	return false
}
