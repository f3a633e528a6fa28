package score

import (
	"fmt"

	"github.com/johentsch/scoresync/model"
)

// LabelTable is a parsed harmony/cadence annotation table.
type LabelTable struct {
	Path   string
	Scheme model.QuarterbeatsScheme
	Labels []model.Label
}

// ReadLabels parses a label table. The file must carry the same kind of
// quarterbeats column as the note table it annotates.
func ReadLabels(path string) (*LabelTable, error) {
	h, records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	scheme, err := resolveScheme(h, path)
	if err != nil {
		return nil, err
	}
	t := &LabelTable{Path: path, Scheme: scheme, Labels: make([]model.Label, 0, len(records))}
	qbCol := scheme.Column()
	for _, rec := range records {
		t.Labels = append(t.Labels, model.Label{
			Quarterbeats: h.floatCell(rec, qbCol),
			Label:        h.cell(rec, "label"),
			GlobalKey:    h.cell(rec, "globalkey"),
			LocalKey:     h.cell(rec, "localkey"),
			Cadence:      h.cell(rec, "cadence"),
			Chord:        h.cell(rec, "chord"),
			Numeral:      h.cell(rec, "numeral"),
			Phraseend:    h.cell(rec, "phraseend"),
		})
	}
	return t, nil
}

// MergeNotesLabels outer-joins notes and labels on their quarterbeat
// positions. Note order is preserved; a note co-occurring with several
// labels yields several rows; labels that match no note are appended at
// the end with NoteIndex -1. A scheme mismatch between the two tables
// (one unfolded, one not) is a schema error.
func MergeNotesLabels(notes *Table, labels *LabelTable) ([]model.MergedRow, error) {
	if notes.Scheme != labels.Scheme {
		return nil, fmt.Errorf(
			"%w: notes use %q while labels use %q; one of them seems unfolded while the other is not",
			ErrMissingColumns, notes.Scheme.Column(), labels.Scheme.Column())
	}

	byQB := make(map[float64][]int, len(labels.Labels))
	for i, l := range labels.Labels {
		byQB[l.Quarterbeats] = append(byQB[l.Quarterbeats], i)
	}

	matched := make([]bool, len(labels.Labels))
	var rows []model.MergedRow
	for i := range notes.Notes {
		n := &notes.Notes[i]
		labelIdxs := byQB[n.Quarterbeats]
		if len(labelIdxs) == 0 {
			rows = append(rows, model.MergedRow{
				Quarterbeats: n.Quarterbeats,
				NoteIndex:    i,
				Note:         n,
			})
			continue
		}
		for _, li := range labelIdxs {
			matched[li] = true
			rows = append(rows, model.MergedRow{
				Quarterbeats: n.Quarterbeats,
				NoteIndex:    i,
				Note:         n,
				Label:        &labels.Labels[li],
			})
		}
	}
	for i := range labels.Labels {
		if !matched[i] {
			rows = append(rows, model.MergedRow{
				Quarterbeats: labels.Labels[i].Quarterbeats,
				NoteIndex:    -1,
				Label:        &labels.Labels[i],
			})
		}
	}
	return rows, nil
}
