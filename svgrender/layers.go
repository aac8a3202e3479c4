package svgrender

import (
	"errors"
	"fmt"

	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgraster"
)

// DefaultMaxLayers is the number of layers which may be held
// at the same time when Options.MaxLayers is zero.
const DefaultMaxLayers = 32

var (
	errLayerBudget = errors.New("too many nested layers")
	errLayerAlloc  = errors.New("can't allocate layer")
)

// layerManager provides the offscreen canvas used to isolate groups,
// masks, clip paths and filters. Every layer has the size of the viewport.
// Released layers are kept for reuse.
type layerManager struct {
	width, height int
	max           int // max number of layers in use

	inUse int
	pool  []*svgraster.Canvas
}

func newLayerManager(width, height, max int) *layerManager {
	if max <= 0 {
		max = DefaultMaxLayers
	}
	return &layerManager{width: width, height: height, max: max}
}

// acquire returns a transparent layer, or an error
// if the budget is exhausted or the allocation failed.
// The layer must be released with `release`.
func (lm *layerManager) acquire() (*svgraster.Canvas, error) {
	if lm.inUse >= lm.max {
		return nil, fmt.Errorf("%w (maximum is %d)", errLayerBudget, lm.max)
	}
	var layer *svgraster.Canvas
	if n := len(lm.pool); n != 0 {
		layer = lm.pool[n-1]
		lm.pool = lm.pool[:n-1]
		layer.Clear()
	} else {
		var err error
		layer, err = svgraster.NewCanvas(lm.width, lm.height)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errLayerAlloc, err)
		}
		svglog.Logger().Debug("layer allocated", "width", lm.width, "height", lm.height, "in use", lm.inUse+1)
	}
	lm.inUse++
	return layer, nil
}

func (lm *layerManager) release(layer *svgraster.Canvas) {
	lm.inUse--
	lm.pool = append(lm.pool, layer)
}
