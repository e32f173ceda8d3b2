package contract

// Task is a unit of deferred work. Containers store tasks but never
// execute them, that is left to whoever takes a task out.
type Task interface {
	Execute()
}
