package runner

import (
	"fmt"
	"time"
)

// EntryPointNotFoundError means the configured entry file does not exist.
// It is returned before any child process is spawned.
type EntryPointNotFoundError struct {
	Path string
}

func (e *EntryPointNotFoundError) Error() string {
	return fmt.Sprintf("entry point not found: %s", e.Path)
}

// TimeoutError means no results arrived within the configured bound. The
// child has been force-killed by the time this is returned.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no profile results within %s", e.After)
}

// ChildProcessError means the child exited unexpectedly before producing
// results, with a code outside the benign whitelist.
type ChildProcessError struct {
	Code int
}

func (e *ChildProcessError) Error() string {
	return fmt.Sprintf("child process exited with code %d before reporting results", e.Code)
}
