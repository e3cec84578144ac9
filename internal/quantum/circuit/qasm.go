package circuit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// QASM renders the bound circuit as OpenQASM 2.0. qelib1 has no state
// preparation instruction, so Initialize operations are emitted as comments
// listing the amplitudes.
func (b *Bound) QASM() string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n")

	qubitNames := registerNames(b.QRegs, b.NumQubits, "q")
	clbitNames := registerNames(b.CRegs, b.NumClbits, "c")

	for _, reg := range declaredRegisters(b.QRegs, b.NumQubits, "q") {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", reg.Name, reg.Size)
	}
	for _, reg := range declaredRegisters(b.CRegs, b.NumClbits, "c") {
		fmt.Fprintf(&sb, "creg %s[%d];\n", reg.Name, reg.Size)
	}

	for _, op := range b.Ops {
		args := make([]string, len(op.Qubits))
		for i, q := range op.Qubits {
			args[i] = qubitNames[q]
		}
		switch {
		case op.Kind == Initialize:
			fmt.Fprintf(&sb, "// initialize %s\n", strings.Join(args, ","))
			for i, amp := range op.Amplitudes {
				if amp == 0 {
					continue
				}
				fmt.Fprintf(&sb, "//   |%0*b> %s\n", len(op.Qubits), i, formatComplex(amp))
			}
		case op.Kind.IsRotation():
			fmt.Fprintf(&sb, "%s(%s) %s;\n", op.Kind, formatFloat(op.Angle.Value), args[0])
		case op.Kind == Measure:
			fmt.Fprintf(&sb, "measure %s -> %s;\n", args[0], clbitNames[op.Clbit])
		default:
			fmt.Fprintf(&sb, "%s %s;\n", op.Kind, strings.Join(args, ","))
		}
	}
	return sb.String()
}

// declaredRegisters falls back to one flat register when none were named.
func declaredRegisters(regs []Register, n int, fallback string) []Register {
	if len(regs) == 0 && n > 0 {
		return []Register{{Name: fallback, Offset: 0, Size: n}}
	}
	return regs
}

func registerNames(regs []Register, n int, fallback string) []string {
	names := make([]string, n)
	for _, reg := range declaredRegisters(regs, n, fallback) {
		for i := 0; i < reg.Size; i++ {
			names[reg.Offset+i] = fmt.Sprintf("%s[%d]", reg.Name, i)
		}
	}
	return names
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}

func formatComplex(c complex128) string {
	if imag(c) == 0 {
		return formatFloat(real(c))
	}
	sign := "+"
	if imag(c) < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%s%si", formatFloat(real(c)), sign, formatFloat(math.Abs(imag(c))))
}
