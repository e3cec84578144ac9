package circuits

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aristath/qae/internal/quantum/circuit"
)

// ErrUnsupportedAnsatz is returned for a variant with no registered builder.
var ErrUnsupportedAnsatz = errors.New("unsupported ansatz variant")

// ThetaName names the ansatz parameter vector.
const ThetaName = "theta"

// AnsatzVariant selects the entanglement topology of the ansatz.
type AnsatzVariant int

// Circular closes the CX chain into a ring and follows it with an RZ layer.
const Circular AnsatzVariant = 3

func (v AnsatzVariant) String() string {
	if v == Circular {
		return "circular"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// ansatzBuilder appends one repetition to c over qubits, drawing parameters
// from next.
type ansatzBuilder func(c *circuit.Circuit, qubits []int, next func() circuit.Angle)

// ansatzBuilders maps each variant to its per-repetition builder and the
// parameters it consumes per qubit per repetition.
var ansatzBuilders = map[AnsatzVariant]struct {
	build          ansatzBuilder
	paramsPerQubit int
}{
	Circular: {build: circularLayer, paramsPerQubit: 2},
}

// SupportedAnsatzVariants lists the variants with a registered builder.
func SupportedAnsatzVariants() []AnsatzVariant {
	out := make([]AnsatzVariant, 0, len(ansatzBuilders))
	for v := range ansatzBuilders {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ansatz returns an n-qubit variational fragment with reps repetitions. The
// fragment carries a parameter vector named ThetaName whose slots are
// consumed strictly in gate order.
func Ansatz(n, reps int, variant AnsatzVariant) (*circuit.Circuit, error) {
	builder, ok := ansatzBuilders[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAnsatz, variant)
	}
	if n <= 0 || reps <= 0 {
		return nil, fmt.Errorf("ansatz needs positive width and repetitions, got n=%d reps=%d", n, reps)
	}

	c := circuit.New()
	q := c.AddQubits("ansatz", n)
	params := circuit.NewParameterVector(ThetaName, reps*n*builder.paramsPerQubit)
	c.UseParameters(params)

	p := 0
	next := func() circuit.Angle {
		a := params.At(p)
		p++
		return a
	}
	for r := 0; r < reps; r++ {
		builder.build(c, q, next)
	}
	return c, nil
}

func circularLayer(c *circuit.Circuit, q []int, next func() circuit.Angle) {
	n := len(q)
	for i := 0; i < n; i++ {
		c.RY(next(), q[i])
	}
	for i := 0; i < n-1; i++ {
		c.CX(q[i], q[i+1])
	}
	if n > 1 {
		c.CX(q[n-1], q[0])
	}
	for i := 0; i < n; i++ {
		c.RZ(next(), q[i])
	}
}
