package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johentsch/scoresync/model"
	"github.com/johentsch/scoresync/score"
)

func TestStrictlyMonotonic(t *testing.T) {
	assert := assert.New(t)

	// stalls in either coordinate collapse
	p := model.WarpingPath{
		{Audio: 0, Score: 0},
		{Audio: 1, Score: 0},
		{Audio: 1, Score: 1},
		{Audio: 2, Score: 2},
		{Audio: 2, Score: 3},
		{Audio: 3, Score: 4},
	}
	out := StrictlyMonotonic(p)

	for i := 1; i < len(out); i++ {
		assert.Greater(out[i].Audio, out[i-1].Audio)
		assert.Greater(out[i].Score, out[i-1].Score)
	}
	assert.Equal(p[0], out[0])
	assert.Equal(p[len(p)-1], out[len(out)-1])
}

func TestStrictlyMonotonicFinalStall(t *testing.T) {
	assert := assert.New(t)

	// the last pair stalls against the previous retained one and must
	// overwrite it
	p := model.WarpingPath{
		{Audio: 0, Score: 0},
		{Audio: 5, Score: 5},
		{Audio: 5, Score: 6},
	}
	out := StrictlyMonotonic(p)
	assert.Equal(model.WarpPoint{Audio: 5, Score: 6}, out[len(out)-1])
	for i := 1; i < len(out); i++ {
		assert.Greater(out[i].Audio, out[i-1].Audio)
		assert.Greater(out[i].Score, out[i-1].Score)
	}
}

func TestWarpInterp(t *testing.T) {
	assert := assert.New(t)

	// audio runs at half the score's speed
	p := model.WarpingPath{
		{Audio: 0, Score: 0},
		{Audio: 100, Score: 50},
		{Audio: 200, Score: 100},
	}
	w := newWarpInterp(p, 50)

	assert.InDelta(0.0, w.at(0.0), 1e-9)
	assert.InDelta(1.0, w.at(0.5), 1e-9)
	assert.InDelta(4.0, w.at(2.0), 1e-9)

	// extrapolation beyond the covered range stays on the outer slope
	assert.InDelta(6.0, w.at(3.0), 1e-9)
	assert.InDelta(-2.0, w.at(-1.0), 1e-9)
}

func makeTable(midis ...int) *score.Table {
	t := &score.Table{}
	for i, m := range midis {
		t.Notes = append(t.Notes, model.Note{
			Quarterbeats: float64(i),
			DurationQB:   1,
			Midi:         m,
		})
	}
	return t
}

func makeWarped(midis ...int) []model.AlignedNote {
	var out []model.AlignedNote
	for i, m := range midis {
		out = append(out, model.AlignedNote{
			Start:    float64(i),
			End:      float64(i + 1),
			Duration: 1,
			Pitch:    m,
		})
	}
	return out
}

func TestAttachTimestamps(t *testing.T) {
	assert := assert.New(t)
	table := makeTable(60, 62, 64)

	notes, prior, err := AttachTimestamps(table, makeWarped(60, 62, 64))
	require.NoError(t, err)
	assert.False(prior)
	require.Len(t, notes, 3)
	assert.Equal(1.0, *notes[1].Start)
	assert.Equal(2.0, *notes[1].End)
}

func TestAttachTimestampsShuffledPitches(t *testing.T) {
	assert := assert.New(t)
	table := makeTable(60, 62, 64)

	_, _, err := AttachTimestamps(table, makeWarped(60, 64, 62))
	assert.ErrorIs(err, ErrAlignmentCorrupted)
}

func TestAttachTimestampsRowCountMismatch(t *testing.T) {
	assert := assert.New(t)
	table := makeTable(60, 62, 64)

	_, _, err := AttachTimestamps(table, makeWarped(60, 62))
	assert.ErrorIs(err, ErrAlignmentCorrupted)
}

func TestAttachTimestampsPriorAlignment(t *testing.T) {
	assert := assert.New(t)
	table := makeTable(60)
	table.HasStart = true
	prev := 0.25
	table.Notes[0].Start = &prev

	notes, prior, err := AttachTimestamps(table, makeWarped(60))
	require.NoError(t, err)
	assert.True(prior)
	assert.Equal(0.25, *notes[0].Start)
}

func TestParseMode(t *testing.T) {
	assert := assert.New(t)

	for s, want := range map[string]Mode{
		"compact": ModeCompact, "labels": ModeLabels, "extended": ModeExtended,
	} {
		got, err := ParseMode(s)
		assert.NoError(err)
		assert.Equal(want, got)
		assert.Equal(s, got.String())
	}

	_, err := ParseMode("verbose")
	assert.ErrorIs(err, ErrUnknownMode)
}

func labeledRows() ([]model.AlignedNote, []model.MergedRow) {
	warped := makeWarped(60, 62, 64, 65)
	labelI := &model.Label{Label: "I", LocalKey: "C"}
	labelV := &model.Label{Label: "V", LocalKey: "C"}
	labelEnd := &model.Label{Label: "I6", LocalKey: "C"}
	rows := []model.MergedRow{
		{NoteIndex: 0, Label: labelI},
		{NoteIndex: 1},
		{NoteIndex: 2, Label: labelV},
		{NoteIndex: 3, Label: labelV}, // same label, different start
		{NoteIndex: -1, Label: labelEnd},
	}
	return warped, rows
}

func TestMergeAlignedModeRowCounts(t *testing.T) {
	assert := assert.New(t)

	warped, rows := labeledRows()
	compact, err := MergeAligned(warped, rows, 10, ModeCompact)
	require.NoError(t, err)
	warped, rows = labeledRows()
	labels, err := MergeAligned(warped, rows, 10, ModeLabels)
	require.NoError(t, err)
	warped, rows = labeledRows()
	extended, err := MergeAligned(warped, rows, 10, ModeExtended)
	require.NoError(t, err)

	assert.LessOrEqual(len(compact), len(labels))
	assert.LessOrEqual(len(labels), len(extended))
	assert.Len(extended, 5)
}

func TestMergeAlignedLabelOnlyRow(t *testing.T) {
	assert := assert.New(t)

	warped := makeWarped(60, 62)
	label := &model.Label{Label: "V"}
	rows := []model.MergedRow{
		{NoteIndex: 0},
		{NoteIndex: -1, Label: label}, // between the two notes in row order
		{NoteIndex: 1},
	}
	out, err := MergeAligned(warped, rows, 5, ModeExtended)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// the label row inherits the next note row's start
	assert.Equal(out[2].Start, out[1].Start)
}

func TestMergeAlignedKeepsExtrapolatedNegativeStart(t *testing.T) {
	assert := assert.New(t)

	// a note warped slightly before the path range still owns its start
	// and is not mistaken for a label-only row
	warped := []model.AlignedNote{
		{Start: -0.2, End: 0.1, Duration: 0.3, Pitch: 60},
		{Start: 0.5, End: 1, Duration: 0.5, Pitch: 64},
	}
	rows := []model.MergedRow{
		{NoteIndex: 0, Label: &model.Label{Label: "I"}},
		{NoteIndex: 1, Label: &model.Label{Label: "V"}},
	}
	out, err := MergeAligned(warped, rows, 5, ModeExtended)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(-0.2, out[0].Start)
	assert.Equal(0.5, out[1].Start)
}

func TestMergeAlignedDedupes(t *testing.T) {
	assert := assert.New(t)

	warped := makeWarped(60, 64)
	label := &model.Label{Label: "I"}
	rows := []model.MergedRow{
		{NoteIndex: 0, Label: label},
		{NoteIndex: 0, Label: label}, // same (start, label)
		{NoteIndex: 1, Label: label}, // same label, later start
	}
	out, err := MergeAligned(warped, rows, 5, ModeCompact)
	require.NoError(t, err)
	assert.Len(out, 2)
}

func TestChainEnds(t *testing.T) {
	assert := assert.New(t)

	rows := []model.MergedRow{
		{Start: 0.0},
		{Start: 1.5},
		{Start: 4.0},
	}
	ChainEnds(rows, 10)

	assert.Equal(1.5, rows[0].End)
	assert.Equal(4.0, rows[1].End)
	assert.Equal(10.0, rows[2].End)
	assert.Equal(6.0, rows[2].DurationSeconds)
}
