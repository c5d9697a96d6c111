package geo

import (
	"math"

	"github.com/OCAP2/panopath/pkg/core"
)

// SplitAtSeam breaks a projected polyline wherever a segment would cross the
// U=0/U=1 seam. Each crossing segment becomes two pieces: one from the first
// point to its near vertical edge, one from the opposite edge to the second
// point. The edge V is interpolated along the short (wrapped) segment.
// The check is done per segment, so a path may cross the seam several times.
func SplitAtSeam(uvs []core.UV) [][]core.UV {
	if len(uvs) == 0 {
		return nil
	}

	var runs [][]core.UV
	run := []core.UV{uvs[0]}

	for i := 1; i < len(uvs); i++ {
		a, b := uvs[i-1], uvs[i]
		if math.Abs(b.U-a.U) <= 0.5 {
			run = append(run, b)
			continue
		}

		var exitU, enterU, span, toEdge float64
		if a.U < b.U {
			// a sits left of b: the short way leaves through the left edge
			exitU, enterU = 0, 1
			toEdge = a.U
			span = a.U + (1 - b.U)
		} else {
			exitU, enterU = 1, 0
			toEdge = 1 - a.U
			span = (1 - a.U) + b.U
		}

		edgeV := a.V
		if span > 0 {
			edgeV = a.V + (b.V-a.V)*(toEdge/span)
		}

		run = append(run, core.UV{U: exitU, V: edgeV})
		runs = append(runs, run)
		run = []core.UV{{U: enterU, V: edgeV}, b}
	}

	return append(runs, run)
}

// CrossesSeam reports whether any segment of the polyline wraps around the seam.
func CrossesSeam(uvs []core.UV) bool {
	for i := 1; i < len(uvs); i++ {
		if math.Abs(uvs[i].U-uvs[i-1].U) > 0.5 {
			return true
		}
	}
	return false
}
