package contract

// Container is the interface for the per-worker storage of a Pool.
// Push, Pop and TryPop belong to the owning worker, Steal may be
// called from any goroutine.
type Container[T Task] interface {
	Push(task T)
	Pop() (T, error)
	TryPop() (T, bool)
	Steal() (T, bool)
	Len() int
}
