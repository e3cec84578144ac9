package circuits

import (
	"math"

	"github.com/aristath/qae/internal/quantum/circuit"
)

// LabelReference returns an m-qubit fragment preparing the basis state of
// label y: qubit i is flipped with RX(π) when bit i of y is set.
func LabelReference(y, m int) *circuit.Circuit {
	c := circuit.New()
	q := c.AddQubits("ref", m)
	for i := 0; i < m; i++ {
		if y&(1<<i) != 0 {
			c.RX(circuit.Literal(math.Pi), q[i])
		}
	}
	return c
}
