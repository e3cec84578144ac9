package simulator

import (
	"context"
	"math"
	"testing"

	"github.com/aristath/qae/internal/quantum/circuit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bellCircuit(t *testing.T) *circuit.Bound {
	t.Helper()
	c := circuit.New()
	q := c.AddQubits("q", 2)
	cl := c.AddClbits("c", 2)
	c.H(q[0])
	c.CX(q[0], q[1])
	c.Measure(q[0], cl[0])
	c.Measure(q[1], cl[1])
	b, err := c.Bind(nil)
	require.NoError(t, err)
	return b
}

func TestBackend_RunSamplesCorrelatedOutcomes(t *testing.T) {
	counts, err := New(7).Run(context.Background(), bellCircuit(t), 1000)
	require.NoError(t, err)

	assert.Equal(t, 1000, counts.Shots())
	assert.Equal(t, 0, counts["01"])
	assert.Equal(t, 0, counts["10"])
	assert.InDelta(t, 0.5, counts.Frequency("11"), 0.06)
	assert.Equal(t, []string{"00", "11"}, counts.Keys())
}

func TestBackend_SameSeedSameSamples(t *testing.T) {
	bound := bellCircuit(t)
	a, err := New(42).Run(context.Background(), bound, 256)
	require.NoError(t, err)
	b, err := New(42).Run(context.Background(), bound, 256)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBackend_ClassicalBitOrder(t *testing.T) {
	c := circuit.New()
	q := c.AddQubits("q", 2)
	cl := c.AddClbits("c", 2)
	c.X(q[0])
	// qubit 0 lands in clbit 1, so the leftmost character is set.
	c.Measure(q[0], cl[1])
	c.Measure(q[1], cl[0])
	bound, err := c.Bind(nil)
	require.NoError(t, err)

	probs, err := New(1).Probabilities(context.Background(), bound)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"10": 1}, probs)
}

func TestBackend_ExactProbabilities(t *testing.T) {
	c := circuit.New()
	q := c.AddQubits("q", 1)
	c.AddClbits("c", 1)
	c.RY(circuit.Literal(2*math.Pi/3), q[0])
	c.Measure(q[0], 0)
	bound, err := c.Bind(nil)
	require.NoError(t, err)

	probs, err := New(1).Probabilities(context.Background(), bound)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, probs["0"], 1e-12)
	assert.InDelta(t, 0.75, probs["1"], 1e-12)
}

func TestBackend_Errors(t *testing.T) {
	ctx := context.Background()
	b := New(1)

	_, err := b.Run(ctx, bellCircuit(t), 0)
	assert.ErrorIs(t, err, ErrInvalidShots)

	c := circuit.New()
	q := c.AddQubits("q", 1)
	c.AddClbits("c", 1)
	c.H(q[0])
	noMeasure, err := c.Bind(nil)
	require.NoError(t, err)
	_, err = b.Run(ctx, noMeasure, 10)
	assert.ErrorIs(t, err, ErrNoMeasurements)

	c.Measure(q[0], 0)
	c.X(q[0])
	midCircuit, err := c.Bind(nil)
	require.NoError(t, err)
	_, err = b.Run(ctx, midCircuit, 10)
	assert.ErrorIs(t, err, ErrMidCircuitMeasurement)

	_, err = b.Statevector(ctx, &circuit.Bound{NumQubits: MaxQubits + 1})
	assert.ErrorIs(t, err, ErrTooManyQubits)
}

func TestBackend_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(1).Run(ctx, bellCircuit(t), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackend_SwapTestDistinguishesStates(t *testing.T) {
	build := func(a, b []complex128) *circuit.Bound {
		c := circuit.New()
		left := c.AddQubits("a", 1)
		right := c.AddQubits("b", 1)
		anc := c.AddQubits("anc", 1)
		cl := c.AddClbits("c", 1)
		c.Initialize(a, left...)
		c.Initialize(b, right...)
		c.H(anc[0])
		c.CSwap(anc[0], left[0], right[0])
		c.H(anc[0])
		c.Measure(anc[0], cl[0])
		bound, err := c.Bind(nil)
		require.NoError(t, err)
		return bound
	}
	ctx := context.Background()
	backend := New(3)

	same, err := backend.Probabilities(ctx, build([]complex128{0.6, 0.8}, []complex128{0.6, 0.8}))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, same["1"], 1e-12)

	orth, err := backend.Probabilities(ctx, build([]complex128{1, 0}, []complex128{0, 1}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, orth["1"], 1e-12)
}
