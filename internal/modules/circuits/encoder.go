// Package circuits builds the fragments a quantum autoencoder is assembled
// from: the amplitude encoder, the variational ansatz, the label reference
// state and the swap test.
package circuits

import (
	"math"

	"github.com/aristath/qae/internal/quantum/circuit"
	"gonum.org/v1/gonum/floats"
)

// NormTolerance is how far a feature vector's norm may drift from 1 before
// the encoder rescales it.
const NormTolerance = 1e-10

// Encoder returns a k-qubit fragment that prepares the state proportional
// to x; amplitude i lands on the basis state whose bit j is qubit j. x must
// have length 2^k.
func Encoder(x []float64, k int) *circuit.Circuit {
	amps := Amplitudes(x)
	c := circuit.New()
	q := c.AddQubits("enc", k)
	c.Initialize(amps, q...)
	return c
}

// Amplitudes converts x to a unit-norm complex vector, rescaling silently
// when its norm is off by more than NormTolerance.
func Amplitudes(x []float64) []complex128 {
	scale := 1.0
	if norm := floats.Norm(x, 2); math.Abs(norm-1) > NormTolerance && norm > 0 {
		scale = 1 / norm
	}
	amps := make([]complex128, len(x))
	for i, v := range x {
		amps[i] = complex(v*scale, 0)
	}
	return amps
}
