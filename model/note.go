package model

import (
	"math/big"
	"strconv"
)

// QuarterbeatsScheme records which quarterbeats column a score file carried.
// It is resolved once when the file is read and threaded through everything
// that needs to know whether repeats were expanded.
type QuarterbeatsScheme int

const (
	// Plain means positions come from the "quarterbeats" column.
	Plain QuarterbeatsScheme = iota
	// Playthrough means repeats were expanded and positions come from the
	// "quarterbeats_playthrough" column. Measure labels are then strings
	// such as "12a" and must never be sorted numerically.
	Playthrough
)

// Column returns the name of the quarterbeats column for the scheme.
func (s QuarterbeatsScheme) Column() string {
	if s == Playthrough {
		return "quarterbeats_playthrough"
	}
	return "quarterbeats"
}

// Note is one row of a score's note table. Quarterbeats is the global
// position in quarter-beat units under the table's scheme; Duration is the
// written duration as a fraction of a whole note. All other fields are
// passthrough metadata carried unchanged through alignment.
type Note struct {
	MC            int
	MN            int
	MNPlaythrough string // non-empty only under the Playthrough scheme
	MCOnset       *big.Rat
	MNOnset       *big.Rat
	Timesig       string
	Staff         int
	Voice         int
	Duration      *big.Rat
	DurationQB    float64
	Quarterbeats  float64
	Tied          string
	TPC           int
	Midi          int
	Name          string
	Octave        int
	ChordID       int

	// Real-time fields in seconds, set by alignment. Nil until then.
	Start *float64
	End   *float64
}

// MeasureLabel is the identifier used for grouping notes into measures:
// the playthrough label when repeats are expanded, else the measure number.
func (n *Note) MeasureLabel() string {
	if n.MNPlaythrough != "" {
		return n.MNPlaythrough
	}
	return strconv.Itoa(n.MN)
}

// NormalizedNote is the canonical schema the feature-extraction boundary
// expects. Start/End are in quarter-beat units shifted by +1 so that the
// first event never sits at 0. Velocity and Instrument are placeholders
// required by the boundary's instrument-aware schema.
type NormalizedNote struct {
	Start      float64
	Duration   float64
	Pitch      int
	End        float64
	Velocity   float64
	Instrument string
}

// AlignedNote is a normalized note whose Start/End have been warped into
// real seconds.
type AlignedNote struct {
	Start    float64
	Duration float64
	Pitch    int
	End      float64
}

// Label is one row of a harmony/cadence annotation table, positioned by
// quarterbeats under the same scheme as the note table it belongs to.
type Label struct {
	Quarterbeats float64
	Label        string
	GlobalKey    string
	LocalKey     string
	Cadence      string
	Chord        string
	Numeral      string
	Phraseend    string
}

// MergedRow is one row of the outer join of notes and labels on
// quarterbeats. Note is nil for a label that co-occurs with no note;
// Label is nil for an unlabeled note. NoteIndex addresses the row of the
// note table the row came from, -1 for label-only rows.
type MergedRow struct {
	Quarterbeats float64
	NoteIndex    int
	Note         *Note
	Label        *Label

	// Real-time fields in seconds, filled by the label merger.
	Start           float64
	End             float64
	DurationSeconds float64
}
