package queue

import (
	"time"

	"github.com/aristath/qae/internal/events"
	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/aristath/qae/pkg/formulas"
)

// SmoothingPeriod is the EMA period applied to the optimizer cost curve.
const SmoothingPeriod = 10

// ProgressReporter turns optimizer iterations into job updates and
// TrainingProgress events.
// Events and persistence are throttled; the last iteration is always reported.
type ProgressReporter struct {
	bus         *events.Bus
	jobID       string
	maxIter     int
	costs       []float64
	lastReport  time.Time
	minInterval time.Duration
	now         func() time.Time

	// update applies the latest values to the tracked job.
	update func(iteration int, cost, smoothed float64, persist bool)
}

// NewProgressReporter creates a progress reporter throttled to 10 reports per second.
func NewProgressReporter(bus *events.Bus, jobID string, maxIter int, update func(int, float64, float64, bool)) *ProgressReporter {
	return &ProgressReporter{
		bus:         bus,
		jobID:       jobID,
		maxIter:     maxIter,
		minInterval: 100 * time.Millisecond,
		now:         time.Now,
		update:      update,
	}
}

// Report is a classifier.ProgressFunc.
func (pr *ProgressReporter) Report(p classifier.Progress) {
	pr.costs = append(pr.costs, p.Cost)
	smoothed := p.Cost
	if ema := formulas.CalculateEMA(pr.costs, SmoothingPeriod); ema != nil {
		smoothed = *ema
	}

	now := pr.now()
	emit := p.Iteration >= pr.maxIter || now.Sub(pr.lastReport) >= pr.minInterval
	if emit {
		pr.lastReport = now
	}

	if pr.update != nil {
		pr.update(p.Iteration, p.Cost, smoothed, emit)
	}
	if !emit || pr.bus == nil {
		return
	}

	pr.bus.Emit("queue", &events.TrainingProgressData{
		JobID:         pr.jobID,
		Iteration:     p.Iteration,
		MaxIterations: pr.maxIter,
		Evaluations:   p.Evaluations,
		Cost:          p.Cost,
		SmoothedCost:  smoothed,
	})
}

// Costs returns the raw costs reported so far.
func (pr *ProgressReporter) Costs() []float64 {
	return pr.costs
}
