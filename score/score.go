// Package score reads note and label tables from TSV/CSV files and
// normalizes them into the canonical schema the synchronization boundary
// expects.
package score

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/johentsch/scoresync/model"
)

// ErrMissingColumns indicates a table without the required columns.
var ErrMissingColumns = errors.New("score: required column missing")

// Table is a parsed note table. Scheme is resolved once at load time.
// HasStart is set when the file already carried a real-time start column,
// i.e. it was aligned before.
type Table struct {
	Path     string
	Scheme   model.QuarterbeatsScheme
	Notes    []model.Note
	HasStart bool
}

type header map[string]int

func (h header) has(name string) bool {
	_, ok := h[name]
	return ok
}

func (h header) cell(rec []string, name string) string {
	idx, ok := h[name]
	if !ok || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func (h header) intCell(rec []string, name string) int {
	v, _ := strconv.Atoi(h.cell(rec, name))
	return v
}

func (h header) ratCell(rec []string, name string) *big.Rat {
	s := h.cell(rec, name)
	if s == "" {
		return new(big.Rat)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return new(big.Rat)
	}
	return r
}

func (h header) floatCell(rec []string, name string) float64 {
	s := h.cell(rec, name)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	// quarterbeats columns may hold exact fractions such as "3/2"
	if r, ok := new(big.Rat).SetString(s); ok {
		f, _ := r.Float64()
		return f
	}
	return 0
}

func readRecords(path string) (header, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("score: reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s is empty", ErrMissingColumns, path)
	}
	h := make(header, len(records[0]))
	for i, name := range records[0] {
		h[strings.TrimSpace(name)] = i
	}
	return h, records[1:], nil
}

// resolveScheme checks for the playthrough variant first, as the original
// corpus tooling does.
func resolveScheme(h header, path string) (model.QuarterbeatsScheme, error) {
	if h.has(model.Playthrough.Column()) {
		return model.Playthrough, nil
	}
	if h.has(model.Plain.Column()) {
		return model.Plain, nil
	}
	return 0, fmt.Errorf("%w: %s contains neither 'quarterbeats' nor 'quarterbeats_playthrough'",
		ErrMissingColumns, path)
}

// ReadNotes parses a note table. The file must contain a quarterbeats
// column (plain or playthrough), 'duration_qb' and 'midi'.
func ReadNotes(path string) (*Table, error) {
	h, records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	scheme, err := resolveScheme(h, path)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"duration_qb", "midi"} {
		if !h.has(col) {
			return nil, fmt.Errorf("%w: %s lacks %q", ErrMissingColumns, path, col)
		}
	}

	t := &Table{
		Path:     path,
		Scheme:   scheme,
		Notes:    make([]model.Note, 0, len(records)),
		HasStart: h.has("start"),
	}
	qbCol := scheme.Column()
	for _, rec := range records {
		n := model.Note{
			MC:            h.intCell(rec, "mc"),
			MN:            h.intCell(rec, "mn"),
			MNPlaythrough: h.cell(rec, "mn_playthrough"),
			MCOnset:       h.ratCell(rec, "mc_onset"),
			MNOnset:       h.ratCell(rec, "mn_onset"),
			Timesig:       h.cell(rec, "timesig"),
			Staff:         h.intCell(rec, "staff"),
			Voice:         h.intCell(rec, "voice"),
			Duration:      h.ratCell(rec, "duration"),
			DurationQB:    h.floatCell(rec, "duration_qb"),
			Quarterbeats:  h.floatCell(rec, qbCol),
			Tied:          h.cell(rec, "tied"),
			TPC:           h.intCell(rec, "tpc"),
			Midi:          h.intCell(rec, "midi"),
			Name:          h.cell(rec, "name"),
			Octave:        h.intCell(rec, "octave"),
			ChordID:       h.intCell(rec, "chord_id"),
		}
		if t.HasStart {
			if s := h.cell(rec, "start"); s != "" {
				if v, err := strconv.ParseFloat(s, 64); err == nil {
					n.Start = &v
				}
			}
			if s := h.cell(rec, "end"); s != "" {
				if v, err := strconv.ParseFloat(s, 64); err == nil {
					n.End = &v
				}
			}
		}
		t.Notes = append(t.Notes, n)
	}
	return t, nil
}

// Normalize converts a note table into the canonical schema required by the
// feature-extraction boundary, in quarterbeat units. Start is shifted by +1
// so the first note never coincides with time 0 even after warping;
// velocity and instrument are placeholders the boundary's schema requires.
func Normalize(t *Table) []model.NormalizedNote {
	out := make([]model.NormalizedNote, len(t.Notes))
	for i, n := range t.Notes {
		start := n.Quarterbeats + 1
		out[i] = model.NormalizedNote{
			Start:      start,
			Duration:   n.DurationQB,
			Pitch:      n.Midi,
			End:        start + n.DurationQB,
			Velocity:   1.0,
			Instrument: "piano",
		}
	}
	return out
}
