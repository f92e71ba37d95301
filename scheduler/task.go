package scheduler

import (
	"context"
	"sync/atomic"
)

const (
	taskIdle int32 = iota
	taskRunning
)

// Task runs a function on a single worker. A run requested while the
// previous one is still active is dropped.
type Task struct {
	state int32
	run   func(ctx context.Context)
}

func NewTask(run func(ctx context.Context)) *Task {
	return &Task{run: run}
}

// Run executes the task unless it is already running, it reports whether it ran
func (t *Task) Run(ctx context.Context) bool {
	if !atomic.CompareAndSwapInt32(&t.state, taskIdle, taskRunning) {
		return false
	}
	defer atomic.StoreInt32(&t.state, taskIdle)

	t.run(ctx)
	return true
}

func (t *Task) Running() bool {
	return atomic.LoadInt32(&t.state) == taskRunning
}
