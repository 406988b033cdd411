package sys

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is the host and process state shown by /status and `sys stats`.
type Snapshot struct {
	CPUUsage    float64
	MemoryUsage float64
	ProcessRSS  uint64
	Goroutines  int
}

// Summary renders the snapshot on one line.
func (s Snapshot) Summary() string {
	return fmt.Sprintf("CPU %.1f%% | MEM %.1f%% | RSS %.1f MiB | goroutines %d",
		s.CPUUsage, s.MemoryUsage, float64(s.ProcessRSS)/(1<<20), s.Goroutines)
}

// Monitor provides system awareness
type Monitor struct {
	pid int32
}

func NewMonitor() *Monitor {
	return &Monitor{pid: int32(os.Getpid())}
}

// GetSnapshot returns a current snapshot of system resources
func (m *Monitor) GetSnapshot() (Snapshot, error) {
	c, err := cpu.Percent(0, false)
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting cpu percent: %w", err)
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting virtual memory: %w", err)
	}

	snap := Snapshot{
		MemoryUsage: vm.UsedPercent,
		Goroutines:  runtime.NumGoroutine(),
	}
	if len(c) > 0 {
		snap.CPUUsage = c[0]
	}

	// Process stats are best effort; some sandboxes hide /proc/self.
	if p, err := process.NewProcess(m.pid); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			snap.ProcessRSS = mi.RSS
		}
	}
	return snap, nil
}
