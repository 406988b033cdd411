package sys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_GetSnapshot(t *testing.T) {
	m := NewMonitor()
	snapshot, err := m.GetSnapshot()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, snapshot.CPUUsage, 0.0)
	assert.LessOrEqual(t, snapshot.CPUUsage, 100.0)
	assert.GreaterOrEqual(t, snapshot.MemoryUsage, 0.0)
	assert.LessOrEqual(t, snapshot.MemoryUsage, 100.0)
	assert.Positive(t, snapshot.Goroutines)
}

func TestSnapshot_Summary(t *testing.T) {
	s := Snapshot{CPUUsage: 12.34, MemoryUsage: 50, ProcessRSS: 3 << 20, Goroutines: 4}
	assert.Equal(t, "CPU 12.3% | MEM 50.0% | RSS 3.0 MiB | goroutines 4", s.Summary())
}
