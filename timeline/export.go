package timeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/johentsch/scoresync/model"
)

// measureNumber extracts the numeric measure from a label such as "12a".
func measureNumber(label string) int {
	end := 0
	for end < len(label) && label[end] >= '0' && label[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(label[:end])
	return n
}

// BeatGrid reformats timeline entries for beat-grid consumers, sorted by
// time. The minimal form keeps only time, measure and the first-in-measure
// flag.
func BeatGrid(entries []model.TimelineEntry, minimal bool) []model.BeatGridRow {
	rows := make([]model.BeatGridRow, len(entries))
	for i, e := range entries {
		rows[i] = model.BeatGridRow{
			Time:             e.Start,
			Measure:          measureNumber(e.Measure),
			IsFirstInMeasure: e.Beat == 1,
		}
		if !minimal {
			rows[i].Beat = e.Beat
			rows[i].MeasureLabel = e.Measure
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time < rows[j].Time })
	return rows
}

// KeySpans collapses contiguous runs of identical local-key labels into
// single spans. A group boundary is any change of the local key from the
// previous row; each span ends where the next begins, the last one at
// lastEnd.
func KeySpans(rows []model.MergedRow, lastEnd float64) []model.KeySpan {
	var spans []model.KeySpan
	prev := ""
	first := true
	for _, r := range rows {
		key, annotation := "", ""
		if r.Label != nil {
			key = r.Label.LocalKey
			annotation = r.Label.Label
		}
		if first || key != prev {
			spans = append(spans, model.KeySpan{
				Start:           r.Start,
				Key:             key,
				AnnotationLabel: annotation,
				Level:           1,
				Color:           "#A78BFA",
			})
			prev = key
			first = false
		}
	}
	for i := range spans {
		if i+1 < len(spans) {
			spans[i].End = spans[i+1].Start
		} else {
			spans[i].End = lastEnd
		}
		spans[i].DurationSeconds = spans[i].End - spans[i].Start
	}
	return spans
}

// Cadences extracts cadence annotations as point events.
func Cadences(rows []model.MergedRow) []model.CadencePoint {
	var out []model.CadencePoint
	for _, r := range rows {
		if r.Label != nil && strings.TrimSpace(r.Label.Cadence) != "" {
			out = append(out, model.CadencePoint{Time: r.Start, Label: r.Label.Cadence})
		}
	}
	return out
}

// WarpMap builds a monotonic quarterbeat-to-seconds mapping from the union
// of all note start and end instants. Start instants are keyed by the
// note's quarterbeat position, end instants by position plus four times
// the written duration (whole notes to quarter beats); first-seen values
// win on duplicate keys and end instants only fill keys no start covers.
func WarpMap(notes []model.Note) []model.WarpMapEntry {
	starts := make(map[float64]float64)
	var startOrder []float64
	for i := range notes {
		n := &notes[i]
		if n.Start == nil {
			continue
		}
		if _, ok := starts[n.Quarterbeats]; !ok {
			starts[n.Quarterbeats] = *n.Start
			startOrder = append(startOrder, n.Quarterbeats)
		}
	}

	ends := make(map[float64]float64)
	var endOrder []float64
	for i := range notes {
		n := &notes[i]
		if n.End == nil {
			continue
		}
		dur, _ := n.Duration.Float64()
		key := n.Quarterbeats + 4*dur
		if _, ok := ends[key]; !ok {
			ends[key] = *n.End
			endOrder = append(endOrder, key)
		}
	}

	entries := make([]model.WarpMapEntry, 0, len(startOrder)+len(endOrder))
	for _, qb := range startOrder {
		entries = append(entries, model.WarpMapEntry{Quarterbeats: qb, Seconds: starts[qb]})
	}
	for _, qb := range endOrder {
		if _, covered := starts[qb]; !covered {
			entries = append(entries, model.WarpMapEntry{Quarterbeats: qb, Seconds: ends[qb]})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Quarterbeats < entries[j].Quarterbeats })
	return entries
}
