package export

import (
	"github.com/johentsch/scoresync/align"
	"github.com/johentsch/scoresync/model"
)

// WriteAlignedNotes writes the full note table with its real-time columns
// attached (the "extended" aligned-notes artifact).
func WriteAlignedNotes(storePath, fnameIfDir string, scheme model.QuarterbeatsScheme, notes []model.Note) (string, error) {
	header := []string{
		"mc", "mn", "mn_playthrough", "mc_onset", "mn_onset", "timesig", "staff", "voice",
		"duration", "duration_qb", scheme.Column(), "tied", "tpc", "midi", "name", "octave",
		"chord_id", "start", "end",
	}
	rows := make([][]string, len(notes))
	for i := range notes {
		n := &notes[i]
		start, end := "", ""
		if n.Start != nil {
			start = ff(*n.Start)
		}
		if n.End != nil {
			end = ff(*n.End)
		}
		rows[i] = []string{
			fi(n.MC), fi(n.MN), n.MNPlaythrough, n.MCOnset.RatString(), n.MNOnset.RatString(),
			n.Timesig, fi(n.Staff), fi(n.Voice), n.Duration.RatString(), ff(n.DurationQB),
			ff(n.Quarterbeats), n.Tied, fi(n.TPC), fi(n.Midi), n.Name, fi(n.Octave),
			fi(n.ChordID), start, end,
		}
	}
	return WriteTable(storePath, fnameIfDir, header, rows)
}

// WriteCompactNotes writes the minimal aligned-notes form used when no
// labels are available: start, end and pitch.
func WriteCompactNotes(storePath, fnameIfDir string, warped []model.AlignedNote) (string, error) {
	header := []string{"start", "end", "pitch"}
	rows := make([][]string, len(warped))
	for i, w := range warped {
		rows[i] = []string{ff(w.Start), ff(w.End), fi(w.Pitch)}
	}
	return WriteTable(storePath, fnameIfDir, header, rows)
}

func labelCell(l *model.Label, pick func(*model.Label) string) string {
	if l == nil {
		return ""
	}
	return pick(l)
}

// WriteMergedRows writes the merged notes-and-labels table at the level of
// detail the mode keeps.
func WriteMergedRows(storePath, fnameIfDir string, rows []model.MergedRow, mode align.Mode) (string, error) {
	var header []string
	switch mode {
	case align.ModeCompact:
		header = []string{"start", "end", "label"}
	case align.ModeLabels:
		header = []string{"start", "end", "duration_seconds", "quarterbeats",
			"label", "globalkey", "localkey", "cadence", "chord", "numeral", "phraseend"}
	default:
		header = []string{"start", "end", "duration_seconds", "quarterbeats",
			"label", "globalkey", "localkey", "cadence", "chord", "numeral", "phraseend",
			"mc", "mn", "timesig", "staff", "voice", "midi"}
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		switch mode {
		case align.ModeCompact:
			out[i] = []string{ff(r.Start), ff(r.End), labelCell(r.Label, func(l *model.Label) string { return l.Label })}
		case align.ModeLabels, align.ModeExtended:
			row := []string{
				ff(r.Start), ff(r.End), ff(r.DurationSeconds), ff(r.Quarterbeats),
				labelCell(r.Label, func(l *model.Label) string { return l.Label }),
				labelCell(r.Label, func(l *model.Label) string { return l.GlobalKey }),
				labelCell(r.Label, func(l *model.Label) string { return l.LocalKey }),
				labelCell(r.Label, func(l *model.Label) string { return l.Cadence }),
				labelCell(r.Label, func(l *model.Label) string { return l.Chord }),
				labelCell(r.Label, func(l *model.Label) string { return l.Numeral }),
				labelCell(r.Label, func(l *model.Label) string { return l.Phraseend }),
			}
			if mode == align.ModeExtended {
				if n := r.Note; n != nil {
					row = append(row, fi(n.MC), fi(n.MN), n.Timesig, fi(n.Staff), fi(n.Voice), fi(n.Midi))
				} else {
					row = append(row, "", "", "", "", "", "")
				}
			}
			out[i] = row
		}
	}
	return WriteTable(storePath, fnameIfDir, header, out)
}

// WriteTimeline writes the measure/beat grid.
func WriteTimeline(storePath, fnameIfDir string, entries []model.TimelineEntry) (string, error) {
	header := []string{"measure", "beat", "timesig", "start", "interpolated"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		interpolated := ""
		if e.Interpolated {
			interpolated = "true"
		}
		rows[i] = []string{e.Measure, fi(e.Beat), e.Timesig, ff(e.Start), interpolated}
	}
	return WriteTable(storePath, fnameIfDir, header, rows)
}

// WriteBeatGrid writes the beat-grid export, minimal or full.
func WriteBeatGrid(storePath, fnameIfDir string, rows []model.BeatGridRow, minimal bool) (string, error) {
	header := []string{"time", "measure", "is_first_in_measure"}
	if !minimal {
		header = append(header, "beat", "measure_label")
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		first := "false"
		if r.IsFirstInMeasure {
			first = "true"
		}
		row := []string{ff(r.Time), fi(r.Measure), first}
		if !minimal {
			row = append(row, fi(r.Beat), r.MeasureLabel)
		}
		out[i] = row
	}
	return WriteTable(storePath, fnameIfDir, header, out)
}

// WriteKeySpans writes condensed local-key spans.
func WriteKeySpans(storePath, fnameIfDir string, spans []model.KeySpan) (string, error) {
	header := []string{"start", "end", "duration_seconds", "label", "annotation_label", "level", "color"}
	rows := make([][]string, len(spans))
	for i, s := range spans {
		rows[i] = []string{ff(s.Start), ff(s.End), ff(s.DurationSeconds), s.Key, s.AnnotationLabel, fi(s.Level), s.Color}
	}
	return WriteTable(storePath, fnameIfDir, header, rows)
}

// WriteCadences writes cadence point events.
func WriteCadences(storePath, fnameIfDir string, points []model.CadencePoint) (string, error) {
	header := []string{"time", "label"}
	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{ff(p.Time), p.Label}
	}
	return WriteTable(storePath, fnameIfDir, header, rows)
}

// WriteWarpMap writes the quarterbeat-to-seconds mapping.
func WriteWarpMap(storePath, fnameIfDir string, scheme model.QuarterbeatsScheme, entries []model.WarpMapEntry) (string, error) {
	header := []string{scheme.Column(), "seconds"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{ff(e.Quarterbeats), ff(e.Seconds)}
	}
	return WriteTable(storePath, fnameIfDir, header, rows)
}
