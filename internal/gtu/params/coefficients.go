package params

import (
	"fmt"
	"math/bits"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"gonum.org/v1/gonum/mat"
)

// maskCoefficients holds the per-layer weights of one tracklet mask. Row 0
// gives the offset a, row 1 the slope b and row 2 the tilt term c.
type maskCoefficients [3][gtu.NLayers]float32

// recoCoefficients computes the weights of every mask with at least
// MinHits layers. For a mask the fit model is
//
//	y'(layer) = a + b*x(layer) + c*tilt(layer)
//
// and the weights are the rows of the least-squares pseudo-inverse
// (AᵀA)⁻¹Aᵀ of its design matrix.
func recoCoefficients() (map[int]*maskCoefficients, error) {
	out := make(map[int]*maskCoefficients)
	for mask := 0; mask < 1<<gtu.NLayers; mask++ {
		if bits.OnesCount(uint(mask)) < gtu.MinHits {
			continue
		}
		c, err := fitWeights(mask)
		if err != nil {
			return nil, err
		}
		out[mask] = c
	}
	return out, nil
}

func fitWeights(mask int) (*maskCoefficients, error) {
	layers := make([]int, 0, gtu.NLayers)
	for layer := 0; layer < gtu.NLayers; layer++ {
		if mask&(1<<layer) != 0 {
			layers = append(layers, layer)
		}
	}

	design := mat.NewDense(len(layers), 3, nil)
	for i, layer := range layers {
		design.Set(i, 0, 1)
		design.Set(i, 1, layerX[layer])
		design.Set(i, 2, float64(tiltSign(layer)))
	}

	var normal mat.Dense
	normal.Mul(design.T(), design)
	var inv mat.Dense
	if err := inv.Inverse(&normal); err != nil {
		return nil, fmt.Errorf("%w: singular fit for tracklet mask 0x%02x: %v", gtu.ErrConfiguration, mask, err)
	}
	var pinv mat.Dense
	pinv.Mul(&inv, design.T())

	c := &maskCoefficients{}
	for row := 0; row < 3; row++ {
		for i, layer := range layers {
			c[row][layer] = float32(pinv.At(row, i))
		}
	}
	return c, nil
}
