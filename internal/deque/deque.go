// deque is a package that provides the stealable task container owned by
// each worker of a pool.
package deque

import (
	"errors"
	"sync"

	"github.com/symonk/stealq/internal/contract"
)

var (
	// ErrEmpty is returned by Pop when the deque held no slots at all.
	ErrEmpty = errors.New("deque is empty")

	// ErrAbort is returned by Pop when the deque held only slots that
	// were already claimed by thieves.
	ErrAbort = errors.New("deque lost race to thieves")
)

// slot is either live (holding a task) or a tombstone.
type slot[T contract.Task] struct {
	task T
	live bool
}

// Deque is a stealable container of tasks.  The owner pushes and pops
// at the top, thieves steal from the same top.  A single mutex guards
// the whole container so every operation is linearizable.
//
// Steal leaves a tombstone in place of the task it claims, only Pop
// discards tombstones and shrinks the deque.
type Deque[T contract.Task] struct {
	mu    sync.Mutex
	slots []slot[T]
}

var _ contract.Container[contract.Task] = (*Deque[contract.Task])(nil)

// New returns a new pointer to an empty Deque with room for capacity
// tasks before it has to grow.  The capacity is only a hint.
func New[T contract.Task](capacity int) *Deque[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Deque[T]{slots: make([]slot[T], 0, capacity)}
}

// Push puts a new task at the top of the deque.
// Only the owner should call Push.
func (d *Deque[T]) Push(task T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slots = append(d.slots, slot[T]{task: task, live: true})
}

// Pop removes the topmost live task.  Tombstones found on the way
// are discarded.  Only the owner should call Pop.
//
// ErrEmpty is returned when there were no slots, ErrAbort when there
// were only tombstones.
func (d *Deque[T]) Pop() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if len(d.slots) == 0 {
		return zero, ErrEmpty
	}
	for n := len(d.slots); n > 0; n-- {
		s := d.slots[n-1]
		d.slots[n-1] = slot[T]{}
		d.slots = d.slots[:n-1]
		if s.live {
			return s.task, nil
		}
	}
	return zero, ErrAbort
}

// TryPop is Pop without the distinction between an empty deque and
// one drained by thieves.
func (d *Deque[T]) TryPop() (T, bool) {
	task, err := d.Pop()
	return task, err == nil
}

// Steal claims the topmost live task and leaves a tombstone in its
// place.  The length of the deque is unchanged.  Safe to call from
// any goroutine.
func (d *Deque[T]) Steal() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	for i := len(d.slots) - 1; i >= 0; i-- {
		if !d.slots[i].live {
			continue
		}
		task := d.slots[i].task
		d.slots[i] = slot[T]{}
		return task, true
	}
	return zero, false
}

// Len returns the number of slots in the deque, tombstones included.
func (d *Deque[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.slots)
}
