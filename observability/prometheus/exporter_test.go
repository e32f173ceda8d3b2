package prometheus

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symonk/stealq"
)

func TestExporterRecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewExporter("stealq", reg)
	require.NoError(t, err)

	exporter.TaskSubmitted()
	exporter.TaskSubmitted()
	exporter.TaskExecuted(250 * time.Millisecond)
	exporter.TaskPanicked()
	exporter.TaskStolen()
	exporter.PopAborted()

	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.submittedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.executedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.panicTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.stolenTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.popAbortedTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(exporter.taskDuration))
}

func TestExporterAlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewExporter("stealq", reg)
	require.NoError(t, err)
	second, err := NewExporter("stealq", reg)
	require.NoError(t, err)

	first.TaskStolen()
	second.TaskStolen()

	assert.Equal(t, 2.0, testutil.ToFloat64(first.stolenTotal))
}

func TestNilExporterIsSafe(t *testing.T) {
	var exporter *Exporter
	assert.NotPanics(t, func() {
		exporter.TaskSubmitted()
		exporter.TaskExecuted(time.Second)
		exporter.TaskPanicked()
		exporter.TaskStolen()
		exporter.PopAborted()
	})
}

func TestExporterWithPool(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewExporter("", reg)
	require.NoError(t, err)

	pool := stealq.New(stealq.WithMaxWorkers(2), stealq.WithMetrics(exporter))
	for i := 0; i < 25; i++ {
		_, err := pool.Enqueue(func() {})
		require.NoError(t, err)
	}
	pool.Drain()

	assert.Equal(t, 25.0, testutil.ToFloat64(exporter.submittedTotal))
	assert.Equal(t, 25.0, testutil.ToFloat64(exporter.executedTotal))

	count, err := testutil.GatherAndCount(reg, "stealq_tasks_executed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
