package stealq

import (
	"time"

	"github.com/rs/zerolog"
)

type Option func(p *Pool)

// WithMaxWorkers sets the number of workers, and therefore deques,
// in the pool.  Values below one are ignored.
func WithMaxWorkers(max int) Option {
	return func(p *Pool) {
		if max > 0 {
			p.maxWorkers = max
		}
	}
}

// WithCapacityHint sizes the initial storage of every worker deque.
func WithCapacityHint(hint int) Option {
	return func(p *Pool) {
		if hint >= 0 {
			p.capacityHint = hint
		}
	}
}

// WithStealInterval sets how long an idle worker waits on its own
// inbox before trying to steal again.
func WithStealInterval(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.stealInterval = d
		}
	}
}

// WithInboxSize sets the buffer of each worker's submission channel.
func WithInboxSize(size int) Option {
	return func(p *Pool) {
		if size >= 0 {
			p.inboxSize = size
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(p *Pool) {
		if m != nil {
			p.metrics = m
		}
	}
}
