package stealq

import "sync"

// overflow holds jobs submitted while every worker inbox was full.
// Any worker may take from it.
type overflow struct {
	mu   sync.Mutex
	jobs []*job
}

func (o *overflow) push(j *job) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jobs = append(o.jobs, j)
}

// take removes the most recently parked job.
func (o *overflow) take() (*job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.jobs)
	if n == 0 {
		return nil, false
	}
	j := o.jobs[n-1]
	o.jobs[n-1] = nil
	o.jobs = o.jobs[:n-1]
	return j, true
}

// clear empties the list and returns how many jobs it held.
func (o *overflow) clear() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.jobs)
	o.jobs = nil
	return n
}
