package contract

import "context"

type Pooler interface {
	Submit(task Task) (string, error)
	Enqueue(task func()) (string, error)
	EnqueueWait(task func()) (string, error)

	Stop()
	Drain()

	Throttle(ctx context.Context)
}
