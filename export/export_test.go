package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johentsch/scoresync/model"
)

func TestMakeFilename(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("k331_aligned.csv", MakeFilename("recordings/k331.wav", "_aligned.csv"))
	assert.Equal("k331.timeline.tsv", MakeFilename("k331", ".timeline.tsv"))
}

func TestResolveDirectory(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	path, err := Resolve(dir, "out.tsv")
	require.NoError(t, err)
	assert.Equal(filepath.Join(dir, "out.tsv"), path)

	// a non-existing path is taken as the file itself
	explicit := filepath.Join(dir, "explicit.csv")
	path, err = Resolve(explicit, "ignored.tsv")
	require.NoError(t, err)
	assert.Equal(explicit, path)

	_, err = Resolve(dir, "")
	assert.Error(err)
}

func TestWriteTableSeparators(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	header := []string{"a", "b"}
	rows := [][]string{{"1", "2"}, {"3", "4"}}

	tsv, err := WriteTable(dir, "out.tsv", header, rows)
	require.NoError(t, err)
	content, err := os.ReadFile(tsv)
	require.NoError(t, err)
	assert.Equal("a\tb\n1\t2\n3\t4\n", string(content))

	csvPath, err := WriteTable(dir, "out.csv", header, rows)
	require.NoError(t, err)
	content, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal("a,b\n1,2\n3,4\n", string(content))
}

func TestWriteCompactNotes(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	warped := []model.AlignedNote{
		{Start: 0.5, End: 1, Pitch: 60},
		{Start: 1, End: 2.25, Pitch: 64},
	}
	path, err := WriteCompactNotes(dir, "piece_compact.csv", warped)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal("start,end,pitch", lines[0])
	assert.Equal("0.5,1,60", lines[1])
}

func TestWriteWarpMapSchemeColumn(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	entries := []model.WarpMapEntry{{Quarterbeats: 0, Seconds: 0.5}}
	path, err := WriteWarpMap(dir, "piece.warpmap.tsv", model.Playthrough, entries)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(strings.HasPrefix(string(content), "quarterbeats_playthrough\tseconds\n"))
}

func TestWriteTimeline(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	entries := []model.TimelineEntry{
		{Measure: "1", Beat: 1, Timesig: "4/4", Start: 0.5},
		{Measure: "1", Beat: 2, Timesig: "4/4", Start: 1, Interpolated: true},
	}
	path, err := WriteTimeline(dir, "piece.timeline.tsv", entries)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal("measure\tbeat\ttimesig\tstart\tinterpolated", lines[0])
	assert.Equal("1\t2\t4/4\t1\ttrue", lines[2])
}
