package constants

import "os"

// Defaults of the synchronization pipeline. FeatureRate is shared by the
// audio-side and symbolic-side feature extraction so frame indices convert
// between the two domains with a single division.
const (
	SampleRate   = 22050
	FeatureRate  = 50
	ThresholdRec = 1_000_000
)

// StepWeights weight the (vertical, horizontal, diagonal) steps of the
// warping-path computation.
var StepWeights = [3]float64{1.5, 1.5, 2.0}

// GetOutputDir returns the directory alignment artifacts are written to
// when no explicit destination is given.
func GetOutputDir() string {
	path := os.Getenv("SCORESYNC_OUTPUT_PATH")
	if path != "" {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
