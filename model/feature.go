package model

// FeatureMatrix is an opaque chroma-like representation indexed
// [bin][frame] at a fixed frame rate (frames per second). The audio-side
// and symbolic-side matrices use the same rate so a frame index converts
// to seconds (or quarterbeat-seconds) with a single division.
type FeatureMatrix struct {
	Data      [][]float64
	FrameRate int
}

// Bins returns the number of feature bins (rows).
func (m FeatureMatrix) Bins() int { return len(m.Data) }

// Frames returns the number of time frames (columns).
func (m FeatureMatrix) Frames() int {
	if len(m.Data) == 0 {
		return 0
	}
	return len(m.Data[0])
}

// WarpPoint is one index pair of a warping path: Audio and Score are frame
// indices into the two feature matrices.
type WarpPoint struct {
	Audio int
	Score int
}

// WarpingPath is an ordered sequence of index pairs, monotonically
// non-decreasing in both coordinates, covering both sequences from frame 0
// to their last frames.
type WarpingPath []WarpPoint
