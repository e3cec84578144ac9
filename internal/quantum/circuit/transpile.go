package circuit

import (
	"math"
)

// identityTolerance bounds how far a literal angle may sit from a multiple
// of 2π and still be dropped as an identity rotation.
const identityTolerance = 1e-12

// Transpile returns an equivalent circuit prepared for execution. It merges
// consecutive same-axis rotations on a qubit, drops literal rotations that
// are identities up to global phase, and cancels adjacent self-inverse pairs
// (H·H, X·X and matching CX·CX). Initialize and Measure act as barriers on
// the qubits they touch. The passes repeat until nothing changes.
func (c *Circuit) Transpile() *Circuit {
	out := c.Clone()
	for {
		ops, changed := simplify(out.Ops, out.NumQubits)
		out.Ops = ops
		if !changed {
			return out
		}
	}
}

func simplify(in []Op, numQubits int) ([]Op, bool) {
	out := make([]Op, 0, len(in))
	alive := make([]bool, 0, len(in))
	// last[q] is the index in out of the latest live op touching q, or -1
	// when the history of q must not be looked through.
	last := make([]int, numQubits)
	for i := range last {
		last[i] = -1
	}
	changed := false

	push := func(op Op) {
		out = append(out, op)
		alive = append(alive, true)
		for _, q := range op.Qubits {
			last[q] = len(out) - 1
		}
	}
	barrier := func(op Op) {
		for _, q := range op.Qubits {
			last[q] = -1
		}
	}

	for _, op := range in {
		switch {
		case op.Kind.IsRotation():
			if isIdentity(op.Angle) {
				changed = true
				continue
			}
			q := op.Qubits[0]
			if prev := last[q]; prev >= 0 && alive[prev] && out[prev].Kind == op.Kind {
				if merged, ok := mergeAngles(out[prev].Angle, op.Angle); ok {
					changed = true
					if isIdentity(merged) {
						alive[prev] = false
						last[q] = -1
					} else {
						out[prev].Angle = merged
					}
					continue
				}
			}
			push(op)

		case op.Kind == H || op.Kind == X || op.Kind == CX:
			if prev, ok := sharedPredecessor(op, last); ok && alive[prev] && sameGate(out[prev], op) {
				alive[prev] = false
				barrier(op)
				changed = true
				continue
			}
			push(op)

		case op.Kind == Initialize || op.Kind == Measure:
			push(op)
			barrier(op)

		default:
			push(op)
		}
	}

	kept := out[:0]
	for i, op := range out {
		if alive[i] {
			kept = append(kept, op)
		}
	}
	return kept, changed
}

// sharedPredecessor returns the op that is the latest one on every qubit op
// touches, if there is a single such op.
func sharedPredecessor(op Op, last []int) (int, bool) {
	prev := last[op.Qubits[0]]
	if prev < 0 {
		return -1, false
	}
	for _, q := range op.Qubits[1:] {
		if last[q] != prev {
			return -1, false
		}
	}
	return prev, true
}

func sameGate(a, b Op) bool {
	if a.Kind != b.Kind || len(a.Qubits) != len(b.Qubits) {
		return false
	}
	for i := range a.Qubits {
		if a.Qubits[i] != b.Qubits[i] {
			return false
		}
	}
	return true
}

// mergeAngles adds two angles. Two symbolic angles cannot be merged.
func mergeAngles(a, b Angle) (Angle, bool) {
	switch {
	case a.Symbolic() && b.Symbolic():
		return Angle{}, false
	case a.Symbolic():
		return Angle{Slot: a.Slot, Value: a.Value + b.Value}, true
	case b.Symbolic():
		return Angle{Slot: b.Slot, Value: a.Value + b.Value}, true
	default:
		return Literal(a.Value + b.Value), true
	}
}

func isIdentity(a Angle) bool {
	if a.Symbolic() {
		return false
	}
	return math.Abs(math.Remainder(a.Value, 2*math.Pi)) < identityTolerance
}
