package align

import (
	"errors"
	"fmt"

	"github.com/johentsch/scoresync/model"
)

// ErrUnknownMode indicates an unsupported output mode string. Rejected
// before any expensive extraction runs.
var ErrUnknownMode = errors.New("align: mode must be one of 'compact', 'labels' or 'extended'")

// Mode selects how much of the merged notes-and-labels table an output
// keeps.
type Mode int

const (
	// ModeCompact keeps only timestamps and the label itself.
	ModeCompact Mode = iota
	// ModeLabels keeps timestamps plus all label-side columns.
	ModeLabels
	// ModeExtended keeps everything from both sides, including unlabeled
	// rows.
	ModeExtended
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "compact":
		return ModeCompact, nil
	case "labels":
		return ModeLabels, nil
	case "extended":
		return ModeExtended, nil
	default:
		return 0, fmt.Errorf("%w, got %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeCompact:
		return "compact"
	case ModeLabels:
		return "labels"
	default:
		return "extended"
	}
}

// MergeAligned merges the warped note timestamps into the pre-merged
// notes-and-labels rows. Compact and labels modes drop unlabeled rows and
// deduplicate identical (start, label) pairs; extended keeps every row.
// Afterwards every row's end is chained to the next row's start, the final
// row ending at the recording's duration.
func MergeAligned(warped []model.AlignedNote, rows []model.MergedRow, duration float64, mode Mode) ([]model.MergedRow, error) {
	out := make([]model.MergedRow, 0, len(rows))
	hasNote := make([]bool, 0, len(rows))
	for _, r := range rows {
		warpedRow := r.NoteIndex >= 0 && r.NoteIndex < len(warped)
		if warpedRow {
			r.Start = warped[r.NoteIndex].Start
			r.End = warped[r.NoteIndex].End
		}
		out = append(out, r)
		hasNote = append(hasNote, warpedRow)
	}

	// Label rows that co-occur with no note inherit the start of the next
	// row that has one (or the end of the recording).
	next := duration
	for i := len(out) - 1; i >= 0; i-- {
		if !hasNote[i] {
			out[i].Start = next
			out[i].End = next
		} else {
			next = out[i].Start
		}
	}

	if mode != ModeExtended {
		type key struct {
			start float64
			label string
		}
		seen := make(map[key]bool)
		kept := out[:0]
		for _, r := range out {
			if r.Label == nil || r.Label.Label == "" {
				continue
			}
			k := key{r.Start, r.Label.Label}
			if seen[k] {
				continue
			}
			seen[k] = true
			kept = append(kept, r)
		}
		out = kept
	}

	ChainEnds(out, duration)
	return out, nil
}

// ChainEnds recomputes every row's end as the start of the next row, the
// final row's end as lastEnd, and durations accordingly, so consecutive
// segments cover the recording without gaps or overlaps.
func ChainEnds(rows []model.MergedRow, lastEnd float64) {
	for i := range rows {
		if i+1 < len(rows) {
			rows[i].End = rows[i+1].Start
		} else {
			rows[i].End = lastEnd
		}
		rows[i].DurationSeconds = rows[i].End - rows[i].Start
	}
}
