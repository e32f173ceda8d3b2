// Package stealq is a work-stealing goroutine pool.
//
// Every worker owns a deque of tasks.  Submitted tasks are handed to the
// workers round-robin, each worker runs its own tasks most recent first,
// and a worker that runs dry steals from its peers.
package stealq

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/symonk/stealq/internal/contract"
)

const (
	defaultCapacityHint  = 32
	defaultInboxSize     = 64
	defaultStealInterval = 5 * time.Millisecond
)

var (
	// ErrPoolStopped is returned when submitting to a pool that has been
	// stopped or drained.
	ErrPoolStopped = errors.New("pool is stopped")

	// ErrNilTask is returned when submitting a nil task.
	ErrNilTask = errors.New("task is nil")
)

// Pool runs submitted tasks on a fixed set of workers.
type Pool struct {
	// settings
	maxWorkers    int
	capacityHint  int
	inboxSize     int
	stealInterval time.Duration
	logger        zerolog.Logger
	metrics       Metrics

	// worker specifics
	workers []*worker
	next    atomic.Uint64
	active  atomic.Int32
	wg      conc.WaitGroup

	// submissions that found every inbox full
	overflow overflow

	// accepted but not yet finished tasks
	pending      sync.WaitGroup
	pendingCount atomic.Int64

	// shutdown specifics
	stopped       bool
	stoppedMu     sync.RWMutex
	quit          chan struct{}
	quitOnce      sync.Once
	finished      chan struct{}
	terminateOnce sync.Once

	// gate is closed while the pool is not throttled.  inflight is held
	// for reading by every running task.
	gateMu    sync.Mutex
	gate      chan struct{}
	throttles int
	inflight  sync.RWMutex
}

// Ensure Pool implements Pooler
var _ contract.Pooler = (*Pool)(nil)

// New instantiates a new Pool, applies the functional options to it
// and starts its workers.
func New(opts ...Option) *Pool {
	p := &Pool{
		maxWorkers:    runtime.NumCPU(),
		capacityHint:  defaultCapacityHint,
		inboxSize:     defaultInboxSize,
		stealInterval: defaultStealInterval,
		logger:        zerolog.Nop(),
		metrics:       nopMetrics{},
		quit:          make(chan struct{}),
		finished:      make(chan struct{}),
		gate:          make(chan struct{}),
	}
	close(p.gate)
	for _, opt := range opts {
		opt(p)
	}

	p.workers = make([]*worker, p.maxWorkers)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p)
	}
	for _, w := range p.workers {
		p.wg.Go(w.Run)
	}
	p.logger.Debug().Int("workers", p.maxWorkers).Msg("pool started")
	return p
}

// MaxWorkers returns the number of workers the pool was built with.
func (p *Pool) MaxWorkers() int {
	return p.maxWorkers
}

// ActiveWorkers returns the number of worker goroutines currently
// running.  It drops to zero once the pool has stopped.
func (p *Pool) ActiveWorkers() int {
	return int(p.active.Load())
}

// Pending returns the number of accepted tasks which have not yet
// finished executing.
func (p *Pool) Pending() int {
	return int(p.pendingCount.Load())
}

// Submit hands a task to the pool and returns its id.  It does not
// wait for the task to run.
func (p *Pool) Submit(task contract.Task) (string, error) {
	j, err := p.submit(task)
	if err != nil {
		return "", err
	}
	return j.id, nil
}

// Enqueue is Submit for a plain function.
func (p *Pool) Enqueue(task func()) (string, error) {
	if task == nil {
		return "", ErrNilTask
	}
	return p.Submit(TaskFunc(task))
}

// EnqueueWait submits the task and blocks until it has executed.  If the
// pool is stopped before the task got to run, ErrPoolStopped is returned
// alongside the id.
func (p *Pool) EnqueueWait(task func()) (string, error) {
	if task == nil {
		return "", ErrNilTask
	}
	j, err := p.submit(TaskFunc(task))
	if err != nil {
		return "", err
	}
	select {
	case <-j.done:
		return j.id, nil
	case <-p.finished:
	}
	select {
	case <-j.done:
		return j.id, nil
	default:
		return j.id, ErrPoolStopped
	}
}

func (p *Pool) submit(task contract.Task) (*job, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	p.stoppedMu.RLock()
	defer p.stoppedMu.RUnlock()
	if p.stopped {
		return nil, ErrPoolStopped
	}

	j := &job{id: uuid.NewString(), task: task, done: make(chan struct{})}
	p.pending.Add(1)
	p.pendingCount.Add(1)
	p.metrics.TaskSubmitted()

	// prefer the round-robin pick, then any inbox with room.  Submit is
	// often called from inside a running task, so it must never block on
	// an inbox: with every inbox full the job is parked on the overflow
	// list, which idle workers check before stealing.
	n := uint64(len(p.workers))
	start := p.next.Add(1)
	for i := uint64(0); i < n; i++ {
		select {
		case p.workers[(start+i)%n].inbox <- j:
			return j, nil
		default:
		}
	}
	p.overflow.push(j)
	p.logger.Trace().Str("task", j.id).Msg("inboxes full, task parked on overflow")
	return j, nil
}

// Stop prevents new tasks being enqueued and terminates the pool.
// Workers finish the task they are running, anything still queued
// is discarded.
func (p *Pool) Stop() {
	p.shutdown(false)
}

// Drain prevents new tasks being enqueued and performs a graceful
// shutdown of the pool after every accepted task has been processed.
func (p *Pool) Drain() {
	p.shutdown(true)
}

func (p *Pool) shutdown(drain bool) {
	p.stoppedMu.Lock()
	p.stopped = true
	p.stoppedMu.Unlock()

	if drain {
		p.pending.Wait()
	}
	p.quitOnce.Do(func() { close(p.quit) })
	p.wg.Wait()

	p.terminateOnce.Do(func() {
		for _, w := range p.workers {
			w.Terminate()
		}
		if dropped := p.overflow.clear(); dropped > 0 {
			p.release(dropped)
			p.logger.Warn().Int("dropped", dropped).Msg("discarded overflow tasks")
		}
		close(p.finished)
		p.logger.Debug().Bool("drain", drain).Msg("pool stopped")
	})
}

// release forgets n accepted tasks that will never run.
func (p *Pool) release(n int) {
	for i := 0; i < n; i++ {
		p.pendingCount.Add(-1)
		p.pending.Done()
	}
}

// Throttle stops workers from starting new tasks until the given
// context is cancelled/timed out.  Tasks already running are allowed
// to finish and Throttle returns once they have.  Overlapping calls
// stack: the pool resumes when every throttle context is done.
//
// Stop is not held up by a throttle, queued tasks are discarded as
// usual.  Drain runs every accepted task, so it waits for the throttle
// to lift.  Calling Throttle from inside a task deadlocks.
func (p *Pool) Throttle(ctx context.Context) {
	p.gateMu.Lock()
	if p.throttles == 0 {
		p.gate = make(chan struct{})
		p.logger.Debug().Msg("pool throttled")
	}
	p.throttles++
	p.gateMu.Unlock()

	go func() {
		<-ctx.Done()
		p.gateMu.Lock()
		defer p.gateMu.Unlock()
		p.throttles--
		if p.throttles == 0 {
			close(p.gate)
			p.logger.Debug().Msg("pool unthrottled")
		}
	}()

	// wait out the tasks that got past the gate before it shut
	p.inflight.Lock()
	p.inflight.Unlock()
}

// throttleGate returns the channel to wait on before starting a task
// and whether the pool is currently throttled.
func (p *Pool) throttleGate() (<-chan struct{}, bool) {
	p.gateMu.Lock()
	defer p.gateMu.Unlock()
	return p.gate, p.throttles > 0
}
