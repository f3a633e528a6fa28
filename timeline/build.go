// Package timeline derives a per-measure, per-beat grid of real timestamps
// from aligned notes, filling in beats no note happens to land on.
package timeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/johentsch/scoresync/meter"
	"github.com/johentsch/scoresync/model"
)

// ErrTimesigConflict indicates a measure whose notes reference more than
// one time signature.
var ErrTimesigConflict = errors.New("timeline: multiple time signatures within one measure")

type observed struct {
	measure string
	beat    int
	timesig string
	start   float64
}

// measureGroup keeps measures in first-appearance order; playthrough
// measure labels are opaque strings that must never be sorted.
type measureGroup struct {
	label   string
	timesig string
	beats   map[int]float64
	maxBeat int
}

// Build derives the timeline from aligned notes. Only notes whose exact
// beat position is an integer survive; duplicates per (measure, beat) keep
// the first occurrence; missing beats inside a measure's expected range are
// linearly interpolated across the whole ordered grid.
func Build(notes []model.Note, m *meter.Model) ([]model.TimelineEntry, error) {
	var obs []observed
	seen := make(map[string]map[int]bool)
	for i := range notes {
		n := &notes[i]
		if n.Start == nil {
			continue
		}
		beat, err := m.OnsetToBeat(n.MNOnset, n.Timesig, 1)
		if err != nil {
			return nil, err
		}
		if !meter.IsIntegerBeat(beat) {
			continue
		}
		b := int(beat.Num().Int64())
		label := n.MeasureLabel()
		if seen[label] == nil {
			seen[label] = make(map[int]bool)
		}
		if seen[label][b] {
			continue
		}
		seen[label][b] = true
		obs = append(obs, observed{measure: label, beat: b, timesig: n.Timesig, start: *n.Start})
	}

	groups, order, err := groupByMeasure(obs)
	if err != nil {
		return nil, err
	}

	var entries []model.TimelineEntry
	var missing []int // indices into entries needing interpolation
	for _, label := range order {
		g := groups[label]
		expected, err := expectedBeats(g, m)
		if err != nil {
			return nil, err
		}
		if expected == 0 {
			// anacrusis: no padding, keep observed beats only
			for b := 1; b <= g.maxBeat; b++ {
				if start, ok := g.beats[b]; ok {
					entries = append(entries, model.TimelineEntry{
						Measure: g.label, Beat: b, Timesig: g.timesig, Start: start,
					})
				}
			}
			continue
		}
		for b := 1; b <= expected; b++ {
			e := model.TimelineEntry{Measure: g.label, Beat: b, Timesig: g.timesig}
			if start, ok := g.beats[b]; ok {
				e.Start = start
			} else {
				e.Interpolated = true
				missing = append(missing, len(entries))
			}
			entries = append(entries, e)
		}
	}

	if len(missing) > 0 {
		interpolateStarts(entries)
	}
	return entries, nil
}

func groupByMeasure(obs []observed) (map[string]*measureGroup, []string, error) {
	groups := make(map[string]*measureGroup)
	var order []string
	for _, o := range obs {
		g, ok := groups[o.measure]
		if !ok {
			g = &measureGroup{label: o.measure, timesig: o.timesig, beats: make(map[int]float64)}
			groups[o.measure] = g
			order = append(order, o.measure)
		}
		if g.timesig != o.timesig {
			return nil, nil, fmt.Errorf("%w: measure %s has %q and %q",
				ErrTimesigConflict, o.measure, g.timesig, o.timesig)
		}
		if _, dup := g.beats[o.beat]; !dup {
			g.beats[o.beat] = o.start
		}
		if o.beat > g.maxBeat {
			g.maxBeat = o.beat
		}
	}
	return groups, order, nil
}

// expectedBeats returns max(beats implied by the time signature, highest
// beat actually observed), or 0 for the anacrusis measure, which is never
// padded.
func expectedBeats(g *measureGroup, m *meter.Model) (int, error) {
	if strings.HasPrefix(g.label, "0") {
		return 0, nil
	}
	n, err := m.BeatsPerMeasure(g.timesig)
	if err != nil {
		return 0, err
	}
	if g.maxBeat > n {
		n = g.maxBeat
	}
	return n, nil
}

// interpolateStarts fills missing starts linearly by position across the
// whole ordered grid, so interpolation bridges measure boundaries when an
// entire measure lacks events. One-sided gaps clamp to the nearest
// observed value.
func interpolateStarts(entries []model.TimelineEntry) {
	n := len(entries)
	prev := -1
	for i := 0; i < n; i++ {
		if entries[i].Interpolated {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (entries[i].Start - entries[prev].Start) / float64(i-prev)
			for k := prev + 1; k < i; k++ {
				entries[k].Start = entries[prev].Start + step*float64(k-prev)
			}
		} else if prev < 0 {
			for k := 0; k < i; k++ {
				entries[k].Start = entries[i].Start
			}
		}
		prev = i
	}
	if prev >= 0 {
		for k := prev + 1; k < n; k++ {
			entries[k].Start = entries[prev].Start
		}
	}
}
