package server

import (
	"context"
	"time"

	"github.com/aristath/qae/internal/events"
	"github.com/aristath/qae/internal/queue"
	"github.com/rs/zerolog"
)

// StatusMonitor periodically samples system status and emits an event when
// the training queue changes
type StatusMonitor struct {
	bus            *events.Bus
	systemHandlers *SystemHandlers
	log            zerolog.Logger

	lastQueued  int
	lastRunning int
	checked     bool
}

// NewStatusMonitor creates a new status monitor
func NewStatusMonitor(bus *events.Bus, systemHandlers *SystemHandlers, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		bus:            bus,
		systemHandlers: systemHandlers,
		log:            log.With().Str("component", "status_monitor").Logger(),
	}
}

// Start begins periodic status monitoring until ctx is cancelled
func (m *StatusMonitor) Start(ctx context.Context, interval time.Duration) {
	go m.monitor(ctx, interval)
}

func (m *StatusMonitor) monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.checkStatus()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkStatus()
		}
	}
}

// checkStatus emits SystemStatus on the first check and whenever the
// queued or running job counts change. It reports whether it emitted.
func (m *StatusMonitor) checkStatus() bool {
	if m.bus == nil || m.systemHandlers == nil {
		return false
	}

	status := m.systemHandlers.GetSystemStatusSnapshot()
	queued := status.Jobs[queue.StatusQueued]
	running := status.Jobs[queue.StatusRunning]

	if m.checked && queued == m.lastQueued && running == m.lastRunning {
		return false
	}
	m.checked = true
	m.lastQueued = queued
	m.lastRunning = running

	m.bus.Emit("status_monitor", &events.SystemStatusData{
		CPUPercent:    status.CPUPercent,
		MemoryPercent: status.MemoryPercent,
		QueuedJobs:    queued,
		RunningJobs:   running,
	})
	return true
}
