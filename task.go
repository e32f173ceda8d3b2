package stealq

import "github.com/symonk/stealq/internal/contract"

// TaskFunc adapts an ordinary function to a task.
type TaskFunc func()

func (f TaskFunc) Execute() { f() }

// job is what the worker deques hold: a submitted task plus the
// bookkeeping the pool needs once it has run.
type job struct {
	id   string
	task contract.Task
	done chan struct{}
}

func (j *job) Execute() {
	defer close(j.done)
	j.task.Execute()
}
