package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolNotRunning is returned when submitting to a stopped pool
	ErrPoolNotRunning = errors.New("worker pool is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")
)

// PanicError wraps a value recovered from a panicking job
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}
