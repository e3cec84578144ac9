// Package simulator executes bound circuits on a dense state vector.
//
// Qubit i is bit i of the basis index. Classical outcomes are rendered with
// the most significant classical bit first, so the bitstring "10" over two
// clbits means clbit 1 read 1 and clbit 0 read 0.
package simulator

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/aristath/qae/internal/quantum/circuit"
	"gonum.org/v1/gonum/cmplxs"
)

// MaxQubits bounds the register width the simulator accepts.
const MaxQubits = 24

// StateVector holds the 2^n amplitudes of an n-qubit register.
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

// NewStateVector returns |0...0> on n qubits.
func NewStateVector(n int) *StateVector {
	amps := make([]complex128, 1<<n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: n}
}

// Clone returns a deep copy.
func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// Norm returns the Euclidean norm of the amplitudes.
func (s *StateVector) Norm() float64 {
	return cmplxs.Norm(s.Amplitudes, 2)
}

// Probability returns |amplitude|² of basis state i.
func (s *StateVector) Probability(i int) float64 {
	a := s.Amplitudes[i]
	return real(a)*real(a) + imag(a)*imag(a)
}

// Apply executes one gate. Measure is a no-op here; sampling happens on the
// final state.
func (s *StateVector) Apply(op circuit.Op) error {
	switch op.Kind {
	case circuit.Initialize:
		return s.initialize(op.Qubits, op.Amplitudes)
	case circuit.H:
		s.applyH(op.Qubits[0])
	case circuit.X:
		s.applyX(op.Qubits[0])
	case circuit.RX:
		s.applyRX(op.Qubits[0], op.Angle.Value)
	case circuit.RY:
		s.applyRY(op.Qubits[0], op.Angle.Value)
	case circuit.RZ:
		s.applyRZ(op.Qubits[0], op.Angle.Value)
	case circuit.CX:
		s.applyCX(op.Qubits[0], op.Qubits[1])
	case circuit.CSwap:
		s.applyCSwap(op.Qubits[0], op.Qubits[1], op.Qubits[2])
	case circuit.Measure:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedGate, op.Kind)
	}
	return nil
}

func (s *StateVector) applyH(q int) {
	h := complex(1/math.Sqrt2, 0)
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = h * (a + b)
			s.Amplitudes[j] = h * (a - b)
		}
	}
}

func (s *StateVector) applyX(q int) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyRX(q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = c*a + js*b
			s.Amplitudes[j] = js*a + c*b
		}
	}
}

func (s *StateVector) applyRY(q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = c*a - sn*b
			s.Amplitudes[j] = sn*a + c*b
		}
	}
}

func (s *StateVector) applyRZ(q int, theta float64) {
	bit := 1 << q
	lo := cmplx.Exp(complex(0, -theta/2))
	hi := cmplx.Exp(complex(0, theta/2))
	for i := range s.Amplitudes {
		if i&bit == 0 {
			s.Amplitudes[i] *= lo
		} else {
			s.Amplitudes[i] *= hi
		}
	}
}

func (s *StateVector) applyCX(control, target int) {
	cbit, tbit := 1<<control, 1<<target
	for i := range s.Amplitudes {
		if i&cbit != 0 && i&tbit == 0 {
			j := i | tbit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyCSwap(control, a, b int) {
	cbit, abit, bbit := 1<<control, 1<<a, 1<<b
	for i := range s.Amplitudes {
		// Visit each swapped pair once, from the |a=1,b=0> side.
		if i&cbit != 0 && i&abit != 0 && i&bbit == 0 {
			j := (i &^ abit) | bbit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// initialize resets the target qubits and prepares them in amps. The rest of
// the register keeps its state conditioned on the targets reading zero; if
// that branch is empty the rest is taken from its marginal magnitudes.
func (s *StateVector) initialize(qubits []int, amps []complex128) error {
	if len(amps) != 1<<len(qubits) {
		return fmt.Errorf("%w: %d amplitudes for %d qubits", ErrInvalidState, len(amps), len(qubits))
	}
	if math.Abs(cmplxs.Norm(amps, 2)-1) > normTolerance {
		return fmt.Errorf("%w: amplitudes are not unit norm", ErrInvalidState)
	}

	var mask int
	for _, q := range qubits {
		mask |= 1 << q
	}

	rest := make([]complex128, len(s.Amplitudes))
	var restNorm float64
	for i, a := range s.Amplitudes {
		if i&mask == 0 {
			rest[i] = a
			restNorm += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	if restNorm < normTolerance {
		restNorm = 0
		rest = make([]complex128, len(s.Amplitudes))
		for i := range s.Amplitudes {
			p := s.Probability(i)
			rest[i&^mask] += complex(p, 0)
		}
		for i := range rest {
			if i&mask == 0 {
				rest[i] = complex(math.Sqrt(real(rest[i])), 0)
				restNorm += real(rest[i]) * real(rest[i])
			}
		}
	}
	scale := complex(1/math.Sqrt(restNorm), 0)

	for i := range s.Amplitudes {
		s.Amplitudes[i] = 0
	}
	for base, r := range rest {
		if base&mask != 0 || r == 0 {
			continue
		}
		for k, amp := range amps {
			if amp == 0 {
				continue
			}
			idx := base
			for bitPos, q := range qubits {
				if k&(1<<bitPos) != 0 {
					idx |= 1 << q
				}
			}
			s.Amplitudes[idx] = r * scale * amp
		}
	}
	return nil
}
