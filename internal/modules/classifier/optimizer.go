package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/optimize"
)

// ErrUnsupportedOptimizer is returned for an unknown optimizer identifier.
var ErrUnsupportedOptimizer = errors.New("unsupported optimizer")

// Objective is a scalar cost over a parameter vector. It must not modify x.
type Objective func(x []float64) (float64, error)

// Progress describes one major iteration of the optimizer.
type Progress struct {
	Iteration   int     `json:"iteration"`
	Evaluations int     `json:"evaluations"`
	Cost        float64 `json:"cost"`
}

// ProgressFunc receives every major iteration. It runs on the optimizer's
// goroutine and should return quickly.
type ProgressFunc func(Progress)

// OptimizeResult is the outcome of one minimization.
type OptimizeResult struct {
	X           []float64
	F           float64
	History     []float64
	Iterations  int
	Evaluations int
	Status      string
}

// Optimizer minimizes an objective from a starting point.
type Optimizer interface {
	Minimize(ctx context.Context, f Objective, x0 []float64, maxIter int) (*OptimizeResult, error)
}

var optimizerMethods = map[OptimizerMethod]func(seed uint64) optimize.Method{
	NelderMead: func(uint64) optimize.Method {
		return &optimize.NelderMead{SimplexSize: 1}
	},
	CMAES: func(seed uint64) optimize.Method {
		return &optimize.CmaEsChol{Src: rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)}
	},
}

// GonumOptimizer adapts gonum/optimize to the Optimizer interface.
type GonumOptimizer struct {
	method   OptimizerMethod
	seed     uint64
	progress ProgressFunc
}

// NewOptimizer returns the optimizer for method. progress may be nil.
func NewOptimizer(method OptimizerMethod, seed uint64, progress ProgressFunc) (*GonumOptimizer, error) {
	if _, ok := optimizerMethods[method]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOptimizer, method)
	}
	return &GonumOptimizer{method: method, seed: seed, progress: progress}, nil
}

// Minimize runs at most maxIter major iterations. An objective error or a
// cancelled context stops the run and is returned.
func (o *GonumOptimizer) Minimize(ctx context.Context, f Objective, x0 []float64, maxIter int) (*OptimizeResult, error) {
	var (
		mu      sync.Mutex
		evalErr error
	)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			v, err := f(x)
			if err != nil {
				mu.Lock()
				if evalErr == nil {
					evalErr = err
				}
				mu.Unlock()
				return math.Inf(1)
			}
			return v
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			mu.Lock()
			defer mu.Unlock()
			if evalErr != nil {
				return optimize.Failure, evalErr
			}
			return optimize.NotTerminated, nil
		},
	}

	rec := &progressRecorder{fn: o.progress}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger:       optimize.NeverTerminate{},
		Recorder:        rec,
	}

	res, err := optimize.Minimize(problem, x0, settings, optimizerMethods[o.method](o.seed))
	mu.Lock()
	if evalErr != nil {
		err = evalErr
	}
	mu.Unlock()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	return &OptimizeResult{
		X:           append([]float64(nil), res.X...),
		F:           res.F,
		History:     rec.history,
		Iterations:  res.MajorIterations,
		Evaluations: res.FuncEvaluations,
		Status:      res.Status.String(),
	}, nil
}

// progressRecorder collects the best cost at each major iteration.
type progressRecorder struct {
	fn      ProgressFunc
	history []float64
}

func (r *progressRecorder) Init() error {
	r.history = r.history[:0]
	return nil
}

func (r *progressRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	r.history = append(r.history, loc.F)
	if r.fn != nil {
		r.fn(Progress{Iteration: stats.MajorIterations, Evaluations: stats.FuncEvaluations, Cost: loc.F})
	}
	return nil
}
