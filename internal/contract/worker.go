package contract

// Worker is the interface for something which owns a container
// and processes the tasks in it.
type Worker interface {
	Run()
	Terminate()
}
