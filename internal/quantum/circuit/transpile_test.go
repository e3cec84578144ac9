package circuit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranspile_MergesLiteralRotations(t *testing.T) {
	c := New()
	q := c.AddQubits("q", 1)
	c.RY(Literal(0.3), q[0])
	c.RY(Literal(0.4), q[0])

	out := c.Transpile()
	require.Len(t, out.Ops, 1)
	assert.InDelta(t, 0.7, out.Ops[0].Angle.Value, 1e-12)
	assert.Len(t, c.Ops, 2, "transpile must not modify the template")
}

func TestTranspile_KeepsSymbolicSlotWhenMerging(t *testing.T) {
	c := New()
	q := c.AddQubits("q", 1)
	params := NewParameterVector("theta", 1)
	c.UseParameters(params)
	c.RZ(Literal(0.5), q[0])
	c.RZ(params.At(0), q[0])

	out := c.Transpile()
	require.Len(t, out.Ops, 1)
	assert.Equal(t, Angle{Slot: 0, Value: 0.5}, out.Ops[0].Angle)

	bound, err := out.Bind([]float64{1.0})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, bound.Ops[0].Angle.Value, 1e-12)
}

func TestTranspile_DoesNotMergeTwoSymbolicAngles(t *testing.T) {
	c := New()
	q := c.AddQubits("q", 1)
	params := NewParameterVector("theta", 2)
	c.UseParameters(params)
	c.RY(params.At(0), q[0])
	c.RY(params.At(1), q[0])

	assert.Len(t, c.Transpile().Ops, 2)
}

func TestTranspile_DropsIdentityRotations(t *testing.T) {
	c := New()
	q := c.AddQubits("q", 2)
	c.RX(Literal(0), q[0])
	c.RZ(Literal(2*math.Pi), q[1])
	c.RY(Literal(math.Pi), q[0])
	c.RY(Literal(math.Pi), q[0])

	assert.Empty(t, c.Transpile().Ops)
}

func TestTranspile_CancelsSelfInversePairs(t *testing.T) {
	c := New()
	q := c.AddQubits("q", 3)
	c.H(q[0])
	c.X(q[1])
	c.X(q[1])
	c.CX(q[1], q[2])
	c.CX(q[1], q[2])
	c.H(q[0])

	assert.Empty(t, c.Transpile().Ops)
}

func TestTranspile_RespectsInterveningGates(t *testing.T) {
	c := New()
	q := c.AddQubits("q", 2)
	c.H(q[0])
	c.CX(q[0], q[1])
	c.H(q[0])
	c.CX(q[1], q[0])
	c.CX(q[0], q[1])

	out := c.Transpile()
	assert.Len(t, out.Ops, 5)
}

func TestTranspile_MeasureIsBarrier(t *testing.T) {
	c := New()
	q := c.AddQubits("q", 1)
	c.AddClbits("c", 1)
	c.X(q[0])
	c.Measure(q[0], 0)
	c.X(q[0])

	assert.Len(t, c.Transpile().Ops, 3)
}
