package circuit

import (
	"fmt"
)

// Angle is a rotation angle. A literal angle has Slot -1 and carries its
// value directly; a symbolic angle resolves to values[Slot] + Value when the
// template is bound.
type Angle struct {
	Slot  int
	Value float64
}

// Literal returns a numeric angle.
func Literal(v float64) Angle {
	return Angle{Slot: -1, Value: v}
}

// Symbolic reports whether the angle references a parameter slot.
func (a Angle) Symbolic() bool {
	return a.Slot >= 0
}

func (a Angle) resolve(values []float64) float64 {
	if !a.Symbolic() {
		return a.Value
	}
	return values[a.Slot] + a.Value
}

// ParameterVector is an ordered, named sequence of symbolic parameters.
type ParameterVector struct {
	Name string
	Len  int
}

// NewParameterVector returns a vector of n parameters.
func NewParameterVector(name string, n int) ParameterVector {
	return ParameterVector{Name: name, Len: n}
}

// At returns the symbolic angle for slot i.
func (p ParameterVector) At(i int) Angle {
	if i < 0 || i >= p.Len {
		panic(fmt.Sprintf("circuit: index %d out of range for %s[%d]", i, p.Name, p.Len))
	}
	return Angle{Slot: i}
}

// Label returns the display name of slot i, e.g. "theta[3]".
func (p ParameterVector) Label(i int) string {
	return fmt.Sprintf("%s[%d]", p.Name, i)
}

// Bound is a circuit with every angle resolved to a number.
type Bound struct {
	NumQubits int
	NumClbits int
	QRegs     []Register
	CRegs     []Register
	Ops       []Op
}

// Bind resolves the template against values. The template is left untouched.
func (c *Circuit) Bind(values []float64) (*Bound, error) {
	if len(values) != c.Params.Len {
		return nil, fmt.Errorf("%w: template expects %d values, got %d", ErrParameterCount, c.Params.Len, len(values))
	}
	ops := make([]Op, len(c.Ops))
	for i, op := range c.Ops {
		ops[i] = op.clone()
		if op.Kind.IsRotation() {
			ops[i].Angle = Literal(op.Angle.resolve(values))
		}
	}
	return &Bound{
		NumQubits: c.NumQubits,
		NumClbits: c.NumClbits,
		QRegs:     append([]Register(nil), c.QRegs...),
		CRegs:     append([]Register(nil), c.CRegs...),
		Ops:       ops,
	}, nil
}

// MeasuredQubits maps each measured qubit to the classical bit it is
// recorded in.
func (b *Bound) MeasuredQubits() map[int]int {
	measured := make(map[int]int)
	for _, op := range b.Ops {
		if op.Kind == Measure {
			measured[op.Qubits[0]] = op.Clbit
		}
	}
	return measured
}

// CountOps returns the number of operations per gate kind.
func (b *Bound) CountOps() map[Kind]int {
	return countOps(b.Ops)
}
