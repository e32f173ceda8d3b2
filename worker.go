package stealq

import (
	"errors"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/symonk/stealq/internal/contract"
	"github.com/symonk/stealq/internal/deque"
)

// worker is the owner of a single deque.  Only the worker goroutine
// pushes to and pops from it, peers may steal from it.
type worker struct {
	id     int
	pool   *Pool
	deque  *deque.Deque[*job]
	inbox  chan *job
	logger zerolog.Logger
}

var _ contract.Worker = (*worker)(nil)

func newWorker(id int, p *Pool) *worker {
	return &worker{
		id:     id,
		pool:   p,
		deque:  deque.New[*job](p.capacityHint),
		inbox:  make(chan *job, p.inboxSize),
		logger: p.logger.With().Int("worker", id).Logger(),
	}
}

// Run processes tasks until the pool quits.
func (w *worker) Run() {
	p := w.pool
	p.active.Add(1)
	defer p.active.Add(-1)

	w.logger.Debug().Msg("worker started")
	defer w.logger.Debug().Msg("worker stopped")

	timer := time.NewTimer(p.stealInterval)
	defer timer.Stop()

	for {
		select {
		case <-p.quit:
			return
		default:
		}

		w.collect()
		if j, ok := w.next(); ok {
			if !w.run(j) {
				// pool quit before the job could start, leave it for Terminate
				w.deque.Push(j)
				return
			}
			continue
		}

		timer.Reset(p.stealInterval)
		select {
		case <-p.quit:
			return
		case j := <-w.inbox:
			w.deque.Push(j)
		case <-timer.C:
		}
	}
}

// Terminate discards whatever the worker still holds.  It must only be
// called once Run has returned.
func (w *worker) Terminate() {
	dropped := 0
	for {
		if _, ok := w.deque.TryPop(); !ok {
			break
		}
		dropped++
	}
	dropped += len(w.inbox)
	for len(w.inbox) > 0 {
		<-w.inbox
	}
	w.pool.release(dropped)
	if dropped > 0 {
		w.logger.Warn().Int("dropped", dropped).Msg("discarded queued tasks")
	}
}

// collect moves everything currently waiting in the inbox onto the deque.
func (w *worker) collect() {
	for n := len(w.inbox); n > 0; n-- {
		select {
		case j := <-w.inbox:
			w.deque.Push(j)
		default:
			return
		}
	}
}

// next takes the worker's own most recent task, falling back to stealing.
func (w *worker) next() (*job, bool) {
	j, err := w.deque.Pop()
	if err == nil {
		return j, true
	}
	if errors.Is(err, deque.ErrAbort) {
		w.pool.metrics.PopAborted()
		w.logger.Trace().Msg("deque drained by thieves")
	}
	if j, ok := w.pool.overflow.take(); ok {
		return j, true
	}
	return w.steal()
}

// steal visits every peer once, starting at a random one, and takes the
// most recent task from its deque or, failing that, its inbox.
func (w *worker) steal() (*job, bool) {
	peers := w.pool.workers
	n := len(peers)
	if n < 2 {
		return nil, false
	}
	start := rand.IntN(n)
	for i := 0; i < n; i++ {
		victim := peers[(start+i)%n]
		if victim == w {
			continue
		}
		j, ok := victim.deque.Steal()
		if !ok {
			select {
			case j = <-victim.inbox:
				ok = true
			default:
			}
		}
		if ok {
			w.pool.metrics.TaskStolen()
			w.logger.Trace().Int("victim", victim.id).Str("task", j.id).Msg("stole task")
			return j, true
		}
	}
	return nil, false
}

// run waits for the throttle gate and executes the job.  It reports
// false, without running the job, if the pool quits first.
func (w *worker) run(j *job) bool {
	p := w.pool
	for {
		gate, _ := p.throttleGate()
		select {
		case <-gate:
		case <-p.quit:
			return false
		}

		p.inflight.RLock()
		if _, throttled := p.throttleGate(); throttled {
			// throttled between the gate opening and here
			p.inflight.RUnlock()
			continue
		}
		w.execute(j)
		p.inflight.RUnlock()
		return true
	}
}

func (w *worker) execute(j *job) {
	p := w.pool
	defer p.pending.Done()
	defer p.pendingCount.Add(-1)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.metrics.TaskPanicked()
			w.logger.Error().
				Str("task", j.id).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("task panicked")
		}
		p.metrics.TaskExecuted(time.Since(start))
	}()
	j.Execute()
}
