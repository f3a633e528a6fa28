package align

import "github.com/johentsch/scoresync/model"

// StrictlyMonotonic collapses degenerate stalls of a warping path so that
// every retained pair is strictly greater than its predecessor in both
// coordinates. The first and last pairs survive: the last pair overwrites
// a retained pair it cannot strictly follow.
func StrictlyMonotonic(p model.WarpingPath) model.WarpingPath {
	if len(p) == 0 {
		return p
	}
	out := model.WarpingPath{p[0]}
	for _, pt := range p[1:] {
		last := out[len(out)-1]
		if pt.Audio > last.Audio && pt.Score > last.Score {
			out = append(out, pt)
		}
	}
	final := p[len(p)-1]
	if last := out[len(out)-1]; last != final {
		if final.Audio > last.Audio && final.Score > last.Score {
			out = append(out, final)
		} else {
			out[len(out)-1] = final
		}
	}
	return out
}

// warpInterp linearly maps score time to audio time along a strictly
// monotonic warping path, extrapolating from the outermost segments for
// positions the path does not cover.
type warpInterp struct {
	xs []float64 // score frames, seconds
	ys []float64 // audio frames, seconds
}

func newWarpInterp(p model.WarpingPath, frameRate int) *warpInterp {
	w := &warpInterp{
		xs: make([]float64, len(p)),
		ys: make([]float64, len(p)),
	}
	for i, pt := range p {
		w.xs[i] = float64(pt.Score) / float64(frameRate)
		w.ys[i] = float64(pt.Audio) / float64(frameRate)
	}
	return w
}

func (w *warpInterp) at(x float64) float64 {
	n := len(w.xs)
	switch {
	case n == 0:
		return x
	case n == 1:
		return w.ys[0] + (x - w.xs[0])
	}

	// locate the segment; clamp to the outermost ones for extrapolation
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if w.xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	x0, x1 := w.xs[lo], w.xs[hi]
	y0, y1 := w.ys[lo], w.ys[hi]
	if x1 == x0 {
		return y0
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
