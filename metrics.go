package stealq

import "time"

// Metrics receives pool events.  Implementations must be safe for
// concurrent use and should return quickly.
type Metrics interface {
	TaskSubmitted()
	TaskExecuted(d time.Duration)
	TaskPanicked()
	TaskStolen()
	PopAborted()
}

type nopMetrics struct{}

func (nopMetrics) TaskSubmitted()             {}
func (nopMetrics) TaskExecuted(time.Duration) {}
func (nopMetrics) TaskPanicked()              {}
func (nopMetrics) TaskStolen()                {}
func (nopMetrics) PopAborted()                {}
