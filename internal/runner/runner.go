// Package runner is the parent-process half of the profiler. It spawns the
// application in profiling mode, watches its stdout for the readiness
// marker, pulls the collected observations over the control channel, and
// assembles the final ProfileResult.
package runner

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"bootprof/internal/model"
	"bootprof/internal/report"
)

// DefaultReadyMarker is the literal substring the host framework prints
// once its server is listening. This is a textual contract with the
// framework: it must stay an exact substring match.
const DefaultReadyMarker = "started HTTP server"

const (
	// DefaultTimeout bounds the whole run.
	DefaultTimeout = 30 * time.Second

	// killGrace is how long a child gets to exit after SIGTERM before the
	// controller escalates to SIGKILL.
	killGrace = 500 * time.Millisecond
)

// Options configures one profiling run. Zero values fall back to defaults;
// validation beyond that is the caller's concern.
type Options struct {
	Entry       string        // Entry executable, relative to the target dir (default "bin/server")
	ReadyMarker string        // Stdout substring that triggers the results request
	Timeout     time.Duration // Overall bound for the run
	Quiet       bool          // Suppress child stdio passthrough

	// Stdout and Stderr receive the child's streamed output when not
	// Quiet. Defaults: the controller's own streams.
	Stdout io.Writer
	Stderr io.Writer

	// Classification tables for the summary built into the result. Nil
	// means the built-in tables; pass the same tables used for filtering
	// downstream so counts and views agree.
	Roles            []report.RolePattern
	FrameworkMarkers []string
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.Entry == "" {
		opts.Entry = "bin/server"
	}
	if opts.ReadyMarker == "" {
		opts.ReadyMarker = DefaultReadyMarker
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return opts
}

// Profile boots the application under dir once with the agent active and
// returns the assembled result. It fails with EntryPointNotFoundError,
// TimeoutError, or ChildProcessError; no partial result is ever returned.
func Profile(dir string, options Options) (*model.ProfileResult, error) {
	opts := options.withDefaults()

	entry := opts.Entry
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(dir, entry)
	}
	if _, err := os.Stat(entry); err != nil {
		return nil, &EntryPointNotFoundError{Path: entry}
	}

	// Control channel: one pipe per direction, inherited as fds 3 and 4.
	cmdR, cmdW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	resR, resW, err := os.Pipe()
	if err != nil {
		cmdR.Close()
		cmdW.Close()
		return nil, err
	}

	cmd := exec.Command(entry)
	cmd.Dir = dir
	cmd.ExtraFiles = []*os.File{cmdR, resW} // child fds 3 and 4
	cmd.Env = append(os.Environ(),
		model.EnvFlag+"=1",
		model.EnvCommandFD+"="+strconv.Itoa(3),
		model.EnvResultFD+"="+strconv.Itoa(4),
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		closeAll(cmdR, cmdW, resR, resW)
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		closeAll(cmdR, cmdW, resR, resW)
		return nil, err
	}

	startedAt := time.Now()
	if err := cmd.Start(); err != nil {
		closeAll(cmdR, cmdW, resR, resW)
		return nil, err
	}
	// The child holds its own copies now.
	cmdR.Close()
	resW.Close()

	run := &activeRun{
		cmd:       cmd,
		opts:      opts,
		cmdW:      cmdW,
		resR:      resR,
		results:   make(chan model.ResultsPayload, 1),
		ready:     make(chan [2]int64, 1),
		exited:    make(chan error, 1),
		spawnedAt: startedAt,
	}

	go run.watchStdout(stdout)
	go run.passthrough(stderr, opts.Stderr)
	go run.readChannel()
	go func() { run.exited <- cmd.Wait() }()

	return run.await()
}

type activeRun struct {
	cmd  *exec.Cmd
	opts Options

	cmdW *os.File
	resR *os.File

	requestOnce sync.Once
	results     chan model.ResultsPayload
	ready       chan [2]int64
	exited      chan error
	spawnedAt   time.Time
}

// watchStdout streams the child's stdout through to ours while scanning for
// the readiness marker.
func (r *activeRun) watchStdout(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !r.opts.Quiet {
			io.WriteString(r.opts.Stdout, line+"\n")
		}
		if strings.Contains(line, r.opts.ReadyMarker) {
			r.requestResults()
		}
	}
}

func (r *activeRun) passthrough(src io.Reader, dst io.Writer) {
	if r.opts.Quiet {
		io.Copy(io.Discard, src)
		return
	}
	io.Copy(dst, src)
}

// readChannel consumes child->parent messages. Only the first results
// message counts; duplicates and unknown shapes are dropped.
func (r *activeRun) readChannel() {
	scanner := bufio.NewScanner(r.resR)
	scanner.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)
	for scanner.Scan() {
		var msg model.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		switch msg.Type {
		case model.MsgReady:
			if msg.BootTime != nil {
				select {
				case r.ready <- *msg.BootTime:
				default:
				}
			}
			// The framework reports readiness over the channel as well as
			// on stdout; either one may arrive first.
			r.requestResults()
		case model.MsgResults:
			var payload model.ResultsPayload
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				continue
			}
			select {
			case r.results <- payload:
			default: // idempotent completion: later duplicates are ignored
			}
		}
	}
}

func (r *activeRun) requestResults() {
	r.requestOnce.Do(func() {
		slog.Debug("readiness detected, requesting results")
		msg, err := json.Marshal(model.Message{Type: model.MsgGetResults})
		if err != nil {
			return
		}
		r.cmdW.Write(append(msg, '\n'))
	})
}

// await is the single place the run resolves: results, unexpected exit, or
// timeout, whichever comes first.
func (r *activeRun) await() (*model.ProfileResult, error) {
	timeout := time.NewTimer(r.opts.Timeout)
	defer timeout.Stop()
	defer r.cleanup()

	var bootTime *[2]int64
	for {
		select {
		case payload := <-r.results:
			// A ready message that raced us may still carry the boot time.
			select {
			case pair := <-r.ready:
				bootTime = &pair
			default:
			}
			r.terminate()
			total := time.Since(r.spawnedAt)
			return assemble(payload, total, bootTime, r.opts), nil

		case pair := <-r.ready:
			bootTime = &pair

		case err := <-r.exited:
			r.exited = nil
			// Results written just before the exit may already be parsed;
			// they win over the exit status.
			select {
			case payload := <-r.results:
				select {
				case pair := <-r.ready:
					bootTime = &pair
				default:
				}
				total := time.Since(r.spawnedAt)
				return assemble(payload, total, bootTime, r.opts), nil
			default:
			}
			if code, benign := exitVerdict(err); !benign {
				return nil, &ChildProcessError{Code: code}
			}
			// Benign exit: buffered channel data may still deliver the
			// results, so keep waiting under the timeout.

		case <-timeout.C:
			r.kill()
			return nil, &TimeoutError{After: r.opts.Timeout}
		}
	}
}

// terminate asks the child to exit and escalates after the grace window.
func (r *activeRun) terminate() {
	if r.cmd.Process == nil {
		return
	}
	r.cmd.Process.Signal(syscall.SIGTERM)
	if r.exited == nil {
		return
	}
	select {
	case <-r.exited:
	case <-time.After(killGrace):
		r.kill()
	}
}

func (r *activeRun) kill() {
	if r.cmd.Process != nil {
		r.cmd.Process.Kill()
		if r.exited != nil {
			<-r.exited
		}
	}
}

func (r *activeRun) cleanup() {
	r.cmdW.Close()
	r.resR.Close()
}

// exitVerdict classifies a cmd.Wait error. Benign states: normal exit, and
// termination by the two signals this controller itself sends.
func exitVerdict(err error) (code int, benign bool) {
	if err == nil {
		return 0, true
	}
	ee, ok := err.(*exec.ExitError)
	if !ok {
		return -1, false
	}
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		return ee.ExitCode(), sig == syscall.SIGTERM || sig == syscall.SIGKILL
	}
	code = ee.ExitCode()
	// Shells report signal deaths as 128+signum.
	return code, code == 128+int(syscall.SIGTERM) || code == 128+int(syscall.SIGKILL)
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		f.Close()
	}
}
