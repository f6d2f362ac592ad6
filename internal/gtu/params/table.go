package params

import (
	"fmt"
	"math"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
	"github.com/banshee-data/trd-gtu/internal/gtu/l2zchannels"
	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
	"github.com/banshee-data/trd-gtu/internal/gtu/l5fit"
)

// Table is the parameter lookup service a TMU is built with.
type Table interface {
	l1tracklets.InputParams
	l2zchannels.ChannelParams
	l3tracks.FinderParams
	l5fit.RecoParams
}

// Default tuning values.
const (
	DefaultDeltaY         = 39
	DefaultDeltaAlpha     = 31
	DefaultBitExcessY     = 4
	DefaultBitExcessAlpha = 10
	DefaultBitExcessYProj = 2
)

// DefaultRefLayers is the order in which reference layers are tried.
var DefaultRefLayers = []int{3, 2, 1}

// Options are the tunable parts of the default table. Zero values select
// the defaults.
type Options struct {
	DeltaY         int32
	DeltaAlpha     int32
	RefLayers      []int
	BitExcessY     uint
	BitExcessAlpha uint
	BitExcessYProj uint
}

func (o Options) withDefaults() Options {
	if o.DeltaY == 0 {
		o.DeltaY = DefaultDeltaY
	}
	if o.DeltaAlpha == 0 {
		o.DeltaAlpha = DefaultDeltaAlpha
	}
	if len(o.RefLayers) == 0 {
		o.RefLayers = DefaultRefLayers
	}
	if o.BitExcessY == 0 {
		o.BitExcessY = DefaultBitExcessY
	}
	if o.BitExcessAlpha == 0 {
		o.BitExcessAlpha = DefaultBitExcessAlpha
	}
	if o.BitExcessYProj == 0 {
		o.BitExcessYProj = DefaultBitExcessYProj
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	if o.DeltaY < 0 || o.DeltaAlpha < 0 {
		return fmt.Errorf("%w: negative window (delta_y %d, delta_alpha %d)", gtu.ErrConfiguration, o.DeltaY, o.DeltaAlpha)
	}
	seen := make(map[int]bool, len(o.RefLayers))
	for _, l := range o.RefLayers {
		if l < 0 || l >= gtu.NLayers {
			return fmt.Errorf("%w: reference layer %d out of range [0,%d)", gtu.ErrConfiguration, l, gtu.NLayers)
		}
		if seen[l] {
			return fmt.Errorf("%w: reference layer %d listed twice", gtu.ErrConfiguration, l)
		}
		seen[l] = true
	}
	for name, v := range map[string]uint{
		"bit_excess_y":     o.BitExcessY,
		"bit_excess_alpha": o.BitExcessAlpha,
		"bit_excess_yproj": o.BitExcessYProj,
	} {
		if v > 31 {
			return fmt.Errorf("%w: %s %d exceeds 31", gtu.ErrConfiguration, name, v)
		}
	}
	return nil
}

// DefaultTable is the parameter table of the nominal detector geometry.
type DefaultTable struct {
	opts Options

	ciAlpha [gtu.NLayers]int32
	ciYProj [gtu.NLayers]int32
	coeffs  map[int]*maskCoefficients
}

// NewDefaultTable builds the table for opts, precomputing the per-layer
// constants and the reconstruction coefficients of every tracklet mask.
func NewDefaultTable(opts Options) (*DefaultTable, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	t := &DefaultTable{opts: opts.withDefaults()}
	for layer := 0; layer < gtu.NLayers; layer++ {
		t.ciAlpha[layer] = ciAlpha(layer)
		t.ciYProj[layer] = ciYProj(layer)
	}
	coeffs, err := recoCoefficients()
	if err != nil {
		return nil, err
	}
	t.coeffs = coeffs
	return t, nil
}

// MustDefaultTable is NewDefaultTable with the default options. It panics
// on error and is meant for tests and tools.
func MustDefaultTable() *DefaultTable {
	t, err := NewDefaultTable(Options{})
	if err != nil {
		panic(err)
	}
	return t
}

// Options returns the effective options of the table.
func (t *DefaultTable) Options() Options {
	o := t.opts
	o.RefLayers = append([]int(nil), t.opts.RefLayers...)
	return o
}

func (t *DefaultTable) BitExcessY() uint     { return t.opts.BitExcessY }
func (t *DefaultTable) BitExcessAlpha() uint { return t.opts.BitExcessAlpha }
func (t *DefaultTable) BitExcessYProj() uint { return t.opts.BitExcessYProj }
func (t *DefaultTable) DeltaY() int32        { return t.opts.DeltaY }
func (t *DefaultTable) DeltaAlpha() int32    { return t.opts.DeltaAlpha }
func (t *DefaultTable) RefLayers() []int     { return t.opts.RefLayers }
func (t *DefaultTable) BinWidthY() float32   { return BinWidthY }

func (t *DefaultTable) CiAlpha(layer int) int32 {
	if layer < 0 || layer >= gtu.NLayers {
		return 0
	}
	return t.ciAlpha[layer]
}

func (t *DefaultTable) CiYProj(layer int) int32 {
	if layer < 0 || layer >= gtu.NLayers {
		return 0
	}
	return t.ciYProj[layer]
}

// Yt returns the y offset correcting the pad tilt at the centre of pad row
// zbin. It is 0 for a row outside the stack.
func (t *DefaultTable) Yt(stack, layer int, zbin int32) int32 {
	z, ok := zRowCenter(stack, layer, zbin)
	if !ok {
		return 0
	}
	return int32(float64(tiltSign(layer)) * z * math.Tan(-tiltAngle) / BinWidthY)
}

// InZChannel reports whether pad row zbin of stack contributes to z-channel
// zch. Every row of the stack feeds all three channels; the channels differ
// in how rows are grouped into subchannels.
func (t *DefaultTable) InZChannel(stack, layer, zch int, zbin int32) bool {
	if stack < 0 || stack >= gtu.NStacks || layer < 0 || layer >= gtu.NLayers || zch < 0 || zch >= gtu.NZChannels {
		return false
	}
	return zbin >= 0 && zbin < nRows[stack]
}

// ZSubchannel returns the 1-based subchannel of pad row zbin in z-channel
// zch: groups of three rows, shifted by one row per channel.
func (t *DefaultTable) ZSubchannel(stack, layer, zch int, zbin int32) int32 {
	if !t.InZChannel(stack, layer, zch, zbin) {
		return -1
	}
	return (zbin+int32(zch))/3 + 1
}

// Aki returns the weight of layer in the fitted offset a for mask.
func (t *DefaultTable) Aki(mask, layer int) float32 { return t.coefficient(mask, 0, layer) }

// Bki returns the weight of layer in the fitted slope b for mask.
func (t *DefaultTable) Bki(mask, layer int) float32 { return t.coefficient(mask, 1, layer) }

// Cki returns the weight of layer in the tilt term c for mask.
func (t *DefaultTable) Cki(mask, layer int) float32 { return t.coefficient(mask, 2, layer) }

func (t *DefaultTable) coefficient(mask, row, layer int) float32 {
	c, ok := t.coeffs[mask]
	if !ok || layer < 0 || layer >= gtu.NLayers {
		return 0
	}
	return c[row][layer]
}

// IntersectionPoints returns the radial positions used by Radius for a
// track with the layers of mask. Masks with fewer than MinHits layers give
// (0, 0).
func (t *DefaultTable) IntersectionPoints(mask int) (x1, x2 float32) {
	first, last, n := -1, -1, 0
	for layer := 0; layer < gtu.NLayers; layer++ {
		if mask&(1<<layer) == 0 {
			continue
		}
		if first < 0 {
			first = layer
		}
		last = layer
		n++
	}
	if n < gtu.MinHits {
		return 0, 0
	}
	shift := 10.0 / 6.0 * float64(n-1)
	return float32(layerX[first] + shift), float32(layerX[last] - shift)
}

// Radius returns the signed bending radius of a track from its fitted
// offset a and the intersection points. It uses the sagitta approximation
// and does not depend on b. A track pointing at the vertex gives 0.
func (t *DefaultTable) Radius(a int32, b, x1, x2 float32) float32 {
	half := a >> 1
	if half == 0 {
		return 0
	}
	return 0.0375 * (x1 * x2 / 2) * 256 / float32(half)
}

var _ Table = (*DefaultTable)(nil)
