package params

import (
	"math"

	"github.com/banshee-data/trd-gtu/internal/gtu"
)

// Nominal detector geometry, lengths in cm.
const (
	BinWidthY        = 0.016 // y position bin
	BinWidthdY       = 0.014 // deflection bin
	ChamberThickness = 3.0
	XProj            = 332.25 // radial position of the projection plane

	// fixedLayer is the layer whose pad rows define the projective row
	// grid of a stack.
	fixedLayer = 2
)

// tiltAngle is the pad tilt, alternating in sign from layer to layer.
var tiltAngle = 2.0 * math.Pi / 180.0

// layerX is the radial position of each layer.
var layerX = [gtu.NLayers]float64{300.65, 313.29, 325.93, 338.57, 351.21, 363.85}

// Pad row layout per stack. Rows count from the +z end of the stack.
var (
	nRows   = [gtu.NStacks]int32{16, 16, 12, 16, 16}
	rowLen  = [gtu.NStacks]float64{8, 8, 9, 8, 8}
	zCenter = [gtu.NStacks]float64{-260, -130, 0, 130, 260}
)

// LayerX returns the radial position of layer, or 0 when it is out of
// range.
func LayerX(layer int) float64 {
	if layer < 0 || layer >= gtu.NLayers {
		return 0
	}
	return layerX[layer]
}

// tiltSign is +1 for even and -1 for odd layers.
func tiltSign(layer int) int {
	if layer%2 == 0 {
		return 1
	}
	return -1
}

// ciAlpha converts the y position of layer into the deflection a straight
// line from the vertex would have there, in units of 2^-15 deflection bins
// per y bin.
func ciAlpha(layer int) int32 {
	return int32(math.Round(math.Exp2(15) * BinWidthY / BinWidthdY * ChamberThickness / layerX[layer]))
}

// ciYProj converts a deflection in layer into the y shift from the layer to
// the projection plane, in quarter y bins.
func ciYProj(layer int) int32 {
	return int32(math.Round((XProj - layerX[layer]) / ChamberThickness * BinWidthdY / BinWidthY * 4))
}

// zRowCenter returns the z position of the centre of pad row zbin of stack
// as seen from layer. The rows of all layers point at the vertex, so the
// row grid of the fixed layer scales with the radius.
func zRowCenter(stack, layer int, zbin int32) (float64, bool) {
	if stack < 0 || stack >= gtu.NStacks || layer < 0 || layer >= gtu.NLayers {
		return 0, false
	}
	if zbin < 0 || zbin >= nRows[stack] {
		return 0, false
	}
	offset := (float64(nRows[stack]-1)/2 - float64(zbin)) * rowLen[stack]
	return (zCenter[stack] + offset) * layerX[layer] / layerX[fixedLayer], true
}
