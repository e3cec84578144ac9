package classifier

import (
	"errors"
	"fmt"

	"github.com/aristath/qae/internal/modules/circuits"
	"github.com/aristath/qae/internal/quantum/circuit"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrDimension is returned when a sample's length does not match the
	// encoding register.
	ErrDimension = errors.New("feature vector has the wrong dimension")
	// ErrZeroVector is returned for a sample with zero norm, which cannot be
	// amplitude encoded.
	ErrZeroVector = errors.New("feature vector has zero norm")
	// ErrInvalidLabel is returned for a label outside the label register.
	ErrInvalidLabel = errors.New("label out of range")
)

// Assembler builds per-sample training and prediction circuits for one
// layout. The ansatz fragment is built once and shared by every circuit.
type Assembler struct {
	layout Layout
	ansatz *circuit.Circuit
}

// NewAssembler builds the ansatz for layout.
func NewAssembler(layout Layout, variant circuits.AnsatzVariant, reps int) (*Assembler, error) {
	ansatz, err := circuits.Ansatz(layout.EncodingQubits(), reps, variant)
	if err != nil {
		return nil, err
	}
	return &Assembler{layout: layout, ansatz: ansatz}, nil
}

// NumParameters is the length of the ansatz parameter vector.
func (a *Assembler) NumParameters() int {
	return a.ansatz.NumParameters()
}

func (a *Assembler) checkSample(x []float64) error {
	if want := 1 << a.layout.EncodingQubits(); len(x) != want {
		return fmt.Errorf("%w: got %d features, want 2^%d = %d", ErrDimension, len(x), a.layout.EncodingQubits(), want)
	}
	if floats.Norm(x, 2) == 0 {
		return ErrZeroVector
	}
	return nil
}

// encode lays out latent and label registers and applies encoder then ansatz.
func (a *Assembler) encode(x []float64) (*circuit.Circuit, []int, error) {
	c := circuit.New()
	latent := c.AddQubits("latent", a.layout.LatentQubits)
	label := c.AddQubits("label", a.layout.LabelQubits)
	work := append(append([]int(nil), latent...), label...)

	if err := c.Compose(circuits.Encoder(x, len(work)), work); err != nil {
		return nil, nil, err
	}
	if err := c.Compose(a.ansatz, work); err != nil {
		return nil, nil, err
	}
	return c, label, nil
}

// TrainingCircuit returns the circuit whose ancilla reads 1 with
// probability (1-F)/2, F being the fidelity between the label register and
// the reference state of y.
func (a *Assembler) TrainingCircuit(x []float64, y int) (*circuit.Circuit, error) {
	if err := a.checkSample(x); err != nil {
		return nil, err
	}
	if y < 0 || y >= 1<<a.layout.LabelQubits {
		return nil, fmt.Errorf("%w: %d does not fit in %d qubits", ErrInvalidLabel, y, a.layout.LabelQubits)
	}
	c, label, err := a.encode(x)
	if err != nil {
		return nil, err
	}
	ref := c.AddQubits("ref", a.layout.LabelQubits)
	anc := c.AddQubits("anc", 1)
	out := c.AddClbits("c", 1)

	if err := c.Compose(circuits.LabelReference(y, a.layout.LabelQubits), ref); err != nil {
		return nil, err
	}
	circuits.SwapTest(c, label, ref, anc[0])
	c.Measure(anc[0], out[0])
	return c, nil
}

// PredictionCircuit returns the circuit measuring the label register, bit i
// of the outcome being label qubit i.
func (a *Assembler) PredictionCircuit(x []float64) (*circuit.Circuit, error) {
	if err := a.checkSample(x); err != nil {
		return nil, err
	}
	c, label, err := a.encode(x)
	if err != nil {
		return nil, err
	}
	out := c.AddClbits("clabel", a.layout.LabelQubits)
	for i, q := range label {
		c.Measure(q, out[i])
	}
	return c, nil
}
