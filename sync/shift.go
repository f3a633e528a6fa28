package sync

import (
	"math"

	"github.com/johentsch/scoresync/model"
)

// smoothTo1Hz averages a feature sequence down to one frame per second and
// L2-normalizes every column, giving a cheap summary for the global shift
// search.
func smoothTo1Hz(m model.FeatureMatrix) model.FeatureMatrix {
	rate := m.FrameRate
	if rate <= 0 {
		rate = 1
	}
	frames := (m.Frames() + rate - 1) / rate
	out := newMatrix(m.Bins(), frames, 1)
	for b := 0; b < m.Bins(); b++ {
		for f := 0; f < m.Frames(); f++ {
			out.Data[b][f/rate] += m.Data[b][f]
		}
	}
	for f := 0; f < frames; f++ {
		var norm float64
		for b := 0; b < out.Bins(); b++ {
			norm += out.Data[b][f] * out.Data[b][f]
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for b := 0; b < out.Bins(); b++ {
			out.Data[b][f] /= norm
		}
	}
	return out
}

// OptimalShift tries all twelve chroma rotations of the symbolic summary
// against the audio summary and returns the rotation with the lowest
// warping cost. Compensates global transposition between score and
// recording (and recordings a semitone or more off concert pitch).
func (e *ChromaEngine) OptimalShift(audio, symbolic model.FeatureMatrix) int {
	coarseAudio := smoothTo1Hz(audio)
	coarseSym := smoothTo1Hz(symbolic)
	if coarseAudio.Frames() == 0 || coarseSym.Frames() == 0 {
		return 0
	}

	bestShift, bestCost := 0, math.Inf(1)
	for shift := 0; shift < 12; shift++ {
		cost := distanceOnly(coarseAudio, ShiftChroma(coarseSym, shift), [3]float64{1, 1, 1})
		if cost < bestCost {
			bestCost, bestShift = cost, shift
		}
	}
	return bestShift
}
