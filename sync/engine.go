// Package sync provides the feature-extraction and time-warping boundary of
// the alignment pipeline: chroma-like features from audio and from symbolic
// note lists, a global chroma-shift estimate, and a warping path between
// the two feature sequences.
package sync

import (
	"errors"

	"github.com/johentsch/scoresync/model"
)

// ErrEmptyFeatures indicates a feature sequence without frames.
var ErrEmptyFeatures = errors.New("sync: feature sequence must be non-empty")

// Engine is the boundary the alignment pipeline depends on. The pipeline
// only relies on the documented contracts: both feature matrices share one
// frame rate, and WarpingPath returns an index-pair sequence covering both
// inputs, monotonically non-decreasing in each coordinate.
type Engine interface {
	// EstimateTuning estimates the recording's tuning deviation in cents.
	EstimateTuning(samples []float64, sampleRate int) float64

	// AudioFeatures extracts tuning-corrected features from audio at the
	// given frame rate.
	AudioFeatures(samples []float64, sampleRate int, tuningCents float64, frameRate int) model.FeatureMatrix

	// SymbolicFeatures extracts the analogous features from a normalized
	// note list, treating quarterbeats as seconds.
	SymbolicFeatures(notes []model.NormalizedNote, frameRate int) model.FeatureMatrix

	// OptimalShift determines the chroma bin rotation (0..11) that best
	// aligns coarse 1 Hz summaries of the two sequences.
	OptimalShift(audio, symbolic model.FeatureMatrix) int

	// WarpingPath computes the optimal correspondence between the two
	// feature sequences with the given step weights; threshold bounds the
	// cell count of a single full-resolution pass.
	WarpingPath(audio, symbolic model.FeatureMatrix, frameRate int, stepWeights [3]float64, threshold int) (model.WarpingPath, error)
}

// ShiftChroma rotates all chroma vectors of a feature matrix by the given
// number of bins.
func ShiftChroma(m model.FeatureMatrix, shift int) model.FeatureMatrix {
	bins := m.Bins()
	if bins == 0 {
		return m
	}
	shift = ((shift % bins) + bins) % bins
	if shift == 0 {
		return m
	}
	data := make([][]float64, bins)
	for b := 0; b < bins; b++ {
		data[(b+shift)%bins] = m.Data[b]
	}
	return model.FeatureMatrix{Data: data, FrameRate: m.FrameRate}
}
