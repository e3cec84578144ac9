package circuits

import (
	"fmt"

	"github.com/aristath/qae/internal/quantum/circuit"
)

// SwapTest appends a swap test between registers b and bRef controlled by
// anc. Measuring anc afterwards gives 1 with probability (1-|<b|bRef>|²)/2.
func SwapTest(c *circuit.Circuit, b, bRef []int, anc int) {
	if len(b) != len(bRef) {
		panic(fmt.Sprintf("circuits: swap test over registers of size %d and %d", len(b), len(bRef)))
	}
	c.H(anc)
	for i := range b {
		c.CSwap(anc, b[i], bRef[i])
	}
	c.H(anc)
}
