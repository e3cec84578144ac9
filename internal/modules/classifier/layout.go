package classifier

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidLayout is returned when the feature count leaves no room for
// latent qubits.
var ErrInvalidLayout = errors.New("invalid register layout")

// Layout holds the register sizes derived at fit time. Training circuits use
// latent, label, ref and anc in that order; prediction circuits use only the
// first two.
type Layout struct {
	NFeatures    int `msgpack:"n_features" json:"n_features"`
	NClasses     int `msgpack:"n_classes" json:"n_classes"`
	LatentQubits int `msgpack:"latent_qubits" json:"latent_qubits"`
	LabelQubits  int `msgpack:"label_qubits" json:"label_qubits"`
}

// NewLayout derives the register sizes. labelQubits of 0 means
// ceil(log2(nClasses)), with a floor of one qubit.
func NewLayout(nFeatures, nClasses, labelQubits int) (Layout, error) {
	if nFeatures <= 0 || nClasses <= 0 {
		return Layout{}, fmt.Errorf("%w: %d features, %d classes", ErrInvalidLayout, nFeatures, nClasses)
	}
	if labelQubits == 0 {
		labelQubits = ceilLog2(nClasses)
		if labelQubits == 0 {
			labelQubits = 1
		}
	}
	latent := floorLog2(nFeatures) - labelQubits
	if latent <= 0 {
		return Layout{}, fmt.Errorf("%w: %d features give %d encoding qubits, %d classes need %d label qubits, leaving %d latent qubits",
			ErrInvalidLayout, nFeatures, floorLog2(nFeatures), nClasses, labelQubits, latent)
	}
	if nClasses > 1<<labelQubits {
		return Layout{}, fmt.Errorf("%w: %d classes do not fit in %d label qubits", ErrInvalidLayout, nClasses, labelQubits)
	}
	return Layout{
		NFeatures:    nFeatures,
		NClasses:     nClasses,
		LatentQubits: latent,
		LabelQubits:  labelQubits,
	}, nil
}

// EncodingQubits is the width of the register the encoder and ansatz act on.
func (l Layout) EncodingQubits() int {
	return l.LatentQubits + l.LabelQubits
}

// TrainingQubits is the total width of a training circuit.
func (l Layout) TrainingQubits() int {
	return l.LatentQubits + 2*l.LabelQubits + 1
}

func floorLog2(n int) int {
	return bits.Len(uint(n)) - 1
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
