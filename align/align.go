// Package align orchestrates the audio-to-score synchronization: feature
// extraction on both sides, chroma-shift compensation, warping-path
// computation and the back-projection of the warp onto note events.
package align

import (
	"errors"
	"fmt"
	"os"

	"github.com/johentsch/scoresync/constants"
	"github.com/johentsch/scoresync/model"
	"github.com/johentsch/scoresync/score"
	"github.com/johentsch/scoresync/sync"
)

// ErrAlignmentCorrupted indicates that the pitch sequence of the warped
// notes no longer matches the original table, i.e. row order was lost
// somewhere between normalization and back-projection. Never recovered
// silently.
var ErrAlignmentCorrupted = errors.New("align: pitch mismatch between original and warped notes")

// Aligner runs the synchronization pipeline against a sync.Engine.
type Aligner struct {
	Engine      sync.Engine
	FrameRate   int
	StepWeights [3]float64
	Threshold   int
	Verbose     bool
}

// New returns an Aligner with the pipeline defaults.
func New(engine sync.Engine) *Aligner {
	return &Aligner{
		Engine:      engine,
		FrameRate:   constants.FeatureRate,
		StepWeights: constants.StepWeights,
		Threshold:   constants.ThresholdRec,
	}
}

// Result is the canonical aligned-notes artifact.
type Result struct {
	// Notes is the original table with real-time Start/End attached
	// (unless PriorAlignment is set, in which case it is unmodified).
	Notes []model.Note

	// Warped are the normalized notes with warped timestamps, in the same
	// row order as Notes.
	Warped []model.AlignedNote

	// Duration is the total duration of the recording in seconds.
	Duration float64

	// MatchingScore is the warped/original row-count ratio. Diagnostic
	// only, never gates success.
	MatchingScore float64

	// PriorAlignment is set when the note table already carried a start
	// column, which is preserved rather than overwritten.
	PriorAlignment bool
}

// Align computes real-time positions for every note of the table against
// the given recording.
func (a *Aligner) Align(samples []float64, sampleRate int, duration float64, table *score.Table) (*Result, error) {
	normalized := score.Normalize(table)

	tuning := a.Engine.EstimateTuning(samples, sampleRate)
	if a.Verbose {
		fmt.Printf("Estimated tuning deviation for recording: %.0f cents\n", tuning)
	}

	audioFeat := a.Engine.AudioFeatures(samples, sampleRate, tuning, a.FrameRate)
	symFeat := a.Engine.SymbolicFeatures(normalized, a.FrameRate)

	shift := a.Engine.OptimalShift(audioFeat, symFeat)
	if a.Verbose {
		fmt.Printf("Pitch shift between recording and score: %d bins\n", shift)
	}
	symFeat = sync.ShiftChroma(symFeat, shift)

	path, err := a.Engine.WarpingPath(audioFeat, symFeat, a.FrameRate, a.StepWeights, a.Threshold)
	if err != nil {
		return nil, err
	}
	path = StrictlyMonotonic(path)

	warped := warpNotes(normalized, path, a.FrameRate)
	res := &Result{
		Warped:   warped,
		Duration: duration,
	}
	if len(table.Notes) > 0 {
		res.MatchingScore = float64(len(warped)) / float64(len(table.Notes))
	}

	notes, prior, err := AttachTimestamps(table, warped)
	if err != nil {
		return nil, err
	}
	res.Notes = notes
	res.PriorAlignment = prior
	return res, nil
}

// warpNotes interpolates every note's start and end seconds from the
// warping path, extrapolating beyond the covered range so events outside
// it still receive a best-effort timestamp.
func warpNotes(notes []model.NormalizedNote, path model.WarpingPath, frameRate int) []model.AlignedNote {
	interp := newWarpInterp(path, frameRate)
	out := make([]model.AlignedNote, len(notes))
	for i, n := range notes {
		start := interp.at(n.Start)
		end := interp.at(n.End)
		out[i] = model.AlignedNote{
			Start:    start,
			End:      end,
			Duration: end - start,
			Pitch:    n.Pitch,
		}
	}
	return out
}

// AttachTimestamps re-attaches warped timestamps to the original table by
// row position. If the table already carries a start column the alignment
// is preserved and the caller is warned instead of failing; a pitch
// mismatch at any row is fatal.
func AttachTimestamps(table *score.Table, warped []model.AlignedNote) ([]model.Note, bool, error) {
	if table.HasStart {
		fmt.Fprintf(os.Stderr,
			"%s already came with a 'start' column, so it was left as it was. "+
				"Rename the column before adding an alignment for another recording.\n", table.Path)
		return table.Notes, true, nil
	}
	if len(warped) != len(table.Notes) {
		return nil, false, fmt.Errorf("%w: %d original rows, %d warped rows",
			ErrAlignmentCorrupted, len(table.Notes), len(warped))
	}
	out := make([]model.Note, len(table.Notes))
	for i := range table.Notes {
		if table.Notes[i].Midi != warped[i].Pitch {
			return nil, false, fmt.Errorf("%w at row %d: midi %d vs pitch %d",
				ErrAlignmentCorrupted, i, table.Notes[i].Midi, warped[i].Pitch)
		}
		out[i] = table.Notes[i]
		start, end := warped[i].Start, warped[i].End
		out[i].Start = &start
		out[i].End = &end
	}
	return out, false, nil
}

// ReportMatching prints the diagnostic matching score.
func ReportMatching(res *Result, originalRows int) {
	fmt.Printf("Matching percentage: %.4g%%\n", res.MatchingScore*100)
	fmt.Printf("Number of unmatched notes: %d\n", originalRows-len(res.Warped))
}
