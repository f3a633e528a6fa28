package sync

import (
	"math"

	"github.com/johentsch/scoresync/model"
)

// cosineDist is the frame distance used throughout: 1 - cosine similarity,
// with all-zero frames treated as maximally distant from non-zero ones.
func cosineDist(a, b [][]float64, i, j int) float64 {
	var dot, na, nb float64
	for bin := range a {
		x, y := a[bin][i], b[bin][j]
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		if na == nb {
			return 0
		}
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// dtwPath computes the full-matrix weighted-step warping path between the
// two feature sequences. Steps are (1,0), (0,1) and (1,1) with the given
// weights multiplying the local cost.
func dtwPath(a, b model.FeatureMatrix, weights [3]float64) model.WarpingPath {
	n, m := a.Frames(), b.Frames()
	inf := math.Inf(1)

	dp := make([][]float64, n+1)
	step := make([][]uint8, n+1)
	for i := range dp {
		dp[i] = make([]float64, m+1)
		step[i] = make([]uint8, m+1)
		for j := range dp[i] {
			dp[i][j] = inf
		}
	}
	dp[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			c := cosineDist(a.Data, b.Data, i-1, j-1)
			vert := dp[i-1][j] + weights[0]*c
			horiz := dp[i][j-1] + weights[1]*c
			diag := dp[i-1][j-1] + weights[2]*c
			best, s := diag, uint8(2)
			if vert < best {
				best, s = vert, 0
			}
			if horiz < best {
				best, s = horiz, 1
			}
			dp[i][j] = best
			step[i][j] = s
		}
	}

	var rev model.WarpingPath
	i, j := n, m
	for i > 0 && j > 0 {
		rev = append(rev, model.WarpPoint{Audio: i - 1, Score: j - 1})
		switch step[i][j] {
		case 0:
			i--
		case 1:
			j--
		default:
			i--
			j--
		}
	}
	path := make(model.WarpingPath, len(rev))
	for k := range rev {
		path[k] = rev[len(rev)-1-k]
	}
	return path
}

// poolFrames average-pools a feature matrix along time by the given factor.
func poolFrames(m model.FeatureMatrix, factor int) model.FeatureMatrix {
	frames := (m.Frames() + factor - 1) / factor
	out := newMatrix(m.Bins(), frames, m.FrameRate/factor)
	for b := 0; b < m.Bins(); b++ {
		for f := 0; f < m.Frames(); f++ {
			out.Data[b][f/factor] += m.Data[b][f]
		}
	}
	return out
}

// WarpingPath computes the warping path between audio and symbolic
// features. When the full-resolution cell count exceeds threshold, both
// sequences are average-pooled first and the coarse path is expanded back,
// which bounds the cost matrix for long recordings.
func (e *ChromaEngine) WarpingPath(audio, symbolic model.FeatureMatrix, frameRate int, stepWeights [3]float64, threshold int) (model.WarpingPath, error) {
	n, m := audio.Frames(), symbolic.Frames()
	if n == 0 || m == 0 {
		return nil, ErrEmptyFeatures
	}
	if threshold <= 0 || n*m <= threshold {
		return dtwPath(audio, symbolic, stepWeights), nil
	}

	factor := int(math.Ceil(math.Sqrt(float64(n) * float64(m) / float64(threshold))))
	coarse := dtwPath(poolFrames(audio, factor), poolFrames(symbolic, factor), stepWeights)

	// Expand each coarse pair into fine-resolution pairs along the
	// diagonal of its cell, clamped to sequence bounds.
	path := make(model.WarpingPath, 0, len(coarse)*factor)
	for _, p := range coarse {
		for k := 0; k < factor; k++ {
			fa := p.Audio*factor + k
			fs := p.Score*factor + k
			if fa >= n {
				fa = n - 1
			}
			if fs >= m {
				fs = m - 1
			}
			path = append(path, model.WarpPoint{Audio: fa, Score: fs})
		}
	}
	if last := path[len(path)-1]; last.Audio != n-1 || last.Score != m-1 {
		path = append(path, model.WarpPoint{Audio: n - 1, Score: m - 1})
	}
	return path, nil
}

// distanceOnly computes the DTW distance without a path, using two rolling
// rows. Used for the cheap per-shift comparison of coarse summaries.
func distanceOnly(a, b model.FeatureMatrix, weights [3]float64) float64 {
	n, m := a.Frames(), b.Frames()
	inf := math.Inf(1)
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		prev[j] = inf
	}
	for i := 1; i <= n; i++ {
		curr[0] = inf
		for j := 1; j <= m; j++ {
			c := cosineDist(a.Data, b.Data, i-1, j-1)
			best := prev[j-1] + weights[2]*c
			if v := prev[j] + weights[0]*c; v < best {
				best = v
			}
			if v := curr[j-1] + weights[1]*c; v < best {
				best = v
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}
	return prev[m]
}
