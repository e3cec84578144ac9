// Package circuit is the gate-level representation of quantum circuits.
//
// A Circuit is a template: an arena of operations whose rotation angles may
// reference slots of a ParameterVector instead of numbers. Structure is built
// once and then bound many times; Bind resolves every slot against a numeric
// vector and yields a concrete Bound circuit that the simulator can execute.
// Templates are never mutated by binding, so one template can be shared by
// any number of readers.
package circuit

import (
	"errors"
	"fmt"
)

var (
	// ErrParameterCount is returned when a binding vector does not match the
	// template's parameter vector length.
	ErrParameterCount = errors.New("parameter count mismatch")
	// ErrParameterConflict is returned when a fragment brings a parameter
	// vector different from the one the host already uses.
	ErrParameterConflict = errors.New("conflicting parameter vectors")
	// ErrQubitMap is returned when a fragment is composed onto the wrong
	// number of host qubits.
	ErrQubitMap = errors.New("qubit map does not match fragment width")
)

// Kind identifies a gate.
type Kind int

const (
	Initialize Kind = iota
	H
	X
	RX
	RY
	RZ
	CX
	CSwap
	Measure
)

var kindNames = map[Kind]string{
	Initialize: "initialize",
	H:          "h",
	X:          "x",
	RX:         "rx",
	RY:         "ry",
	RZ:         "rz",
	CX:         "cx",
	CSwap:      "cswap",
	Measure:    "measure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsRotation reports whether the gate carries an angle.
func (k Kind) IsRotation() bool {
	return k == RX || k == RY || k == RZ
}

// Register is a named, contiguous range of qubits or classical bits.
type Register struct {
	Name   string
	Offset int
	Size   int
}

// Indices returns the absolute indices covered by the register.
func (r Register) Indices() []int {
	idx := make([]int, r.Size)
	for i := range idx {
		idx[i] = r.Offset + i
	}
	return idx
}

// Op is a single circuit operation. For controlled gates the controls come
// first in Qubits, followed by the targets.
type Op struct {
	Kind       Kind
	Qubits     []int
	Angle      Angle
	Amplitudes []complex128
	Clbit      int
}

func (o Op) touches(q int) bool {
	for _, oq := range o.Qubits {
		if oq == q {
			return true
		}
	}
	return false
}

func (o Op) clone() Op {
	out := o
	out.Qubits = append([]int(nil), o.Qubits...)
	if o.Amplitudes != nil {
		out.Amplitudes = append([]complex128(nil), o.Amplitudes...)
	}
	return out
}

// Circuit is a parameterized circuit template.
type Circuit struct {
	NumQubits int
	NumClbits int
	QRegs     []Register
	CRegs     []Register
	Ops       []Op
	Params    ParameterVector
}

// New returns an empty circuit.
func New() *Circuit {
	return &Circuit{}
}

// AddQubits appends a quantum register and returns its absolute qubit indices.
func (c *Circuit) AddQubits(name string, n int) []int {
	reg := Register{Name: name, Offset: c.NumQubits, Size: n}
	c.QRegs = append(c.QRegs, reg)
	c.NumQubits += n
	return reg.Indices()
}

// AddClbits appends a classical register and returns its absolute bit indices.
func (c *Circuit) AddClbits(name string, n int) []int {
	reg := Register{Name: name, Offset: c.NumClbits, Size: n}
	c.CRegs = append(c.CRegs, reg)
	c.NumClbits += n
	return reg.Indices()
}

// UseParameters declares the parameter vector the template's angles refer to.
func (c *Circuit) UseParameters(p ParameterVector) {
	c.Params = p
}

// NumParameters returns the length of the template's parameter vector.
func (c *Circuit) NumParameters() int {
	return c.Params.Len
}

func (c *Circuit) checkQubits(qubits ...int) {
	seen := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		if q < 0 || q >= c.NumQubits {
			panic(fmt.Sprintf("circuit: qubit %d out of range [0, %d)", q, c.NumQubits))
		}
		if seen[q] {
			panic(fmt.Sprintf("circuit: qubit %d used twice in one operation", q))
		}
		seen[q] = true
	}
}

func (c *Circuit) append(op Op) {
	c.checkQubits(op.Qubits...)
	c.Ops = append(c.Ops, op)
}

// Initialize prepares the given qubits in the state with the given amplitudes.
// Amplitude index bit i corresponds to qubits[i]. The amplitudes must have
// length 2^len(qubits) and unit norm; normalising is the caller's job.
func (c *Circuit) Initialize(amps []complex128, qubits ...int) {
	if len(amps) != 1<<len(qubits) {
		panic(fmt.Sprintf("circuit: %d amplitudes for %d qubits", len(amps), len(qubits)))
	}
	c.append(Op{
		Kind:       Initialize,
		Qubits:     append([]int(nil), qubits...),
		Amplitudes: append([]complex128(nil), amps...),
	})
}

// H applies a Hadamard gate.
func (c *Circuit) H(q int) { c.append(Op{Kind: H, Qubits: []int{q}}) }

// X applies a Pauli-X gate.
func (c *Circuit) X(q int) { c.append(Op{Kind: X, Qubits: []int{q}}) }

// RX applies an X-axis rotation.
func (c *Circuit) RX(a Angle, q int) { c.rotation(RX, a, q) }

// RY applies a Y-axis rotation.
func (c *Circuit) RY(a Angle, q int) { c.rotation(RY, a, q) }

// RZ applies a Z-axis rotation.
func (c *Circuit) RZ(a Angle, q int) { c.rotation(RZ, a, q) }

func (c *Circuit) rotation(k Kind, a Angle, q int) {
	if a.Symbolic() && a.Slot >= c.Params.Len {
		panic(fmt.Sprintf("circuit: parameter slot %d outside vector %q of length %d", a.Slot, c.Params.Name, c.Params.Len))
	}
	c.append(Op{Kind: k, Qubits: []int{q}, Angle: a})
}

// CX applies a controlled-NOT.
func (c *Circuit) CX(control, target int) {
	c.append(Op{Kind: CX, Qubits: []int{control, target}})
}

// CSwap applies a controlled-swap (Fredkin) gate.
func (c *Circuit) CSwap(control, a, b int) {
	c.append(Op{Kind: CSwap, Qubits: []int{control, a, b}})
}

// Measure records qubit q into classical bit clbit.
func (c *Circuit) Measure(q, clbit int) {
	if clbit < 0 || clbit >= c.NumClbits {
		panic(fmt.Sprintf("circuit: clbit %d out of range [0, %d)", clbit, c.NumClbits))
	}
	c.append(Op{Kind: Measure, Qubits: []int{q}, Clbit: clbit})
}

// Compose appends frag onto the host, mapping fragment qubit i onto
// qubits[i]. Classical bits are not remapped. The host adopts the fragment's
// parameter vector if it has none yet.
func (c *Circuit) Compose(frag *Circuit, qubits []int) error {
	if len(qubits) != frag.NumQubits {
		return fmt.Errorf("%w: fragment has %d qubits, got %d", ErrQubitMap, frag.NumQubits, len(qubits))
	}
	if frag.Params.Len > 0 {
		switch {
		case c.Params.Len == 0:
			c.Params = frag.Params
		case c.Params != frag.Params:
			return fmt.Errorf("%w: host uses %q[%d], fragment uses %q[%d]",
				ErrParameterConflict, c.Params.Name, c.Params.Len, frag.Params.Name, frag.Params.Len)
		}
	}
	for _, op := range frag.Ops {
		mapped := op.clone()
		for i, q := range op.Qubits {
			mapped.Qubits[i] = qubits[q]
		}
		c.append(mapped)
	}
	return nil
}

// Clone returns a deep copy of the template.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		NumQubits: c.NumQubits,
		NumClbits: c.NumClbits,
		QRegs:     append([]Register(nil), c.QRegs...),
		CRegs:     append([]Register(nil), c.CRegs...),
		Ops:       make([]Op, len(c.Ops)),
		Params:    c.Params,
	}
	for i, op := range c.Ops {
		out.Ops[i] = op.clone()
	}
	return out
}

// CountOps returns the number of operations per gate kind.
func (c *Circuit) CountOps() map[Kind]int {
	return countOps(c.Ops)
}

func countOps(ops []Op) map[Kind]int {
	counts := make(map[Kind]int)
	for _, op := range ops {
		counts[op.Kind]++
	}
	return counts
}
