package stealq_test

import (
	"fmt"
	"sync/atomic"

	"github.com/symonk/stealq"
)

func Example() {
	pool := stealq.New(stealq.WithMaxWorkers(4))

	var sum atomic.Int64
	for i := 1; i <= 100; i++ {
		n := int64(i)
		if _, err := pool.Enqueue(func() { sum.Add(n) }); err != nil {
			panic(err)
		}
	}
	pool.Drain()

	fmt.Println(sum.Load())
	// Output: 5050
}

func ExamplePool_EnqueueWait() {
	pool := stealq.New(stealq.WithMaxWorkers(2))
	defer pool.Stop()

	if _, err := pool.EnqueueWait(func() { fmt.Println("executed") }); err != nil {
		panic(err)
	}
	// Output: executed
}
