package e2e_test

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johentsch/scoresync/align"
	"github.com/johentsch/scoresync/batch"
	"github.com/johentsch/scoresync/model"
)

// linearEngine is a deterministic stand-in for the chroma engine: it maps
// the symbolic timeline onto the audio timeline with a single linear warp,
// so every downstream stage can be checked end to end without DSP.
type linearEngine struct{}

func (linearEngine) EstimateTuning(samples []float64, sampleRate int) float64 { return 0 }

func (linearEngine) AudioFeatures(samples []float64, sampleRate int, tuningCents float64, frameRate int) model.FeatureMatrix {
	hop := sampleRate / frameRate
	frames := 1 + (len(samples)-1)/hop
	data := make([][]float64, 12)
	for b := range data {
		data[b] = make([]float64, frames)
	}
	return model.FeatureMatrix{Data: data, FrameRate: frameRate}
}

func (linearEngine) SymbolicFeatures(notes []model.NormalizedNote, frameRate int) model.FeatureMatrix {
	var maxEnd float64
	for _, n := range notes {
		if n.End > maxEnd {
			maxEnd = n.End
		}
	}
	frames := int(math.Ceil(maxEnd*float64(frameRate))) + 1
	data := make([][]float64, 12)
	for b := range data {
		data[b] = make([]float64, frames)
	}
	return model.FeatureMatrix{Data: data, FrameRate: frameRate}
}

func (linearEngine) OptimalShift(audio, symbolic model.FeatureMatrix) int { return 0 }

func (linearEngine) WarpingPath(audio, symbolic model.FeatureMatrix, frameRate int, stepWeights [3]float64, threshold int) (model.WarpingPath, error) {
	n, m := audio.Frames(), symbolic.Frames()
	path := make(model.WarpingPath, m)
	for s := 0; s < m; s++ {
		a := s * (n - 1) / (m - 1)
		path[s] = model.WarpPoint{Audio: a, Score: s}
	}
	return path, nil
}

func writeFixtureWAV(t *testing.T, path string, seconds float64) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	const sr = 22050
	frames := int(seconds * sr)
	enc := wav.NewEncoder(f, sr, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sr},
		SourceBitDepth: 16,
		Data:           make([]int, frames),
	}
	for i := range buf.Data {
		buf.Data[i] = int(12000 * math.Sin(2*math.Pi*440*float64(i)/sr))
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

const fixtureNotes = "mc\tmn\tmc_onset\tmn_onset\ttimesig\tstaff\tvoice\tduration\tquarterbeats\tduration_qb\tmidi\tname\n" +
	"1\t1\t0\t0\t4/4\t1\t1\t1/4\t0\t1\t60\tC4\n" +
	"1\t1\t1/4\t1/4\t4/4\t1\t1\t1/4\t1\t1\t64\tE4\n" +
	"1\t1\t1/2\t1/2\t4/4\t1\t1\t1/4\t2\t1\t67\tG4\n" +
	"1\t1\t3/4\t3/4\t4/4\t1\t1\t1/4\t3\t1\t72\tC5\n"

const fixtureLabels = "quarterbeats\tlabel\tglobalkey\tlocalkey\tcadence\n" +
	"0\tI\tC\tC\t\n" +
	"2\tV\tC\tC\tHC\n"

func readTable(t *testing.T, path string, comma rune) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestFullPipeline(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	audioPath := filepath.Join(dir, "piece.wav")
	notesPath := filepath.Join(dir, "piece.notes.src.tsv")
	labelsPath := filepath.Join(dir, "piece.labels.tsv")
	writeFixtureWAV(t, audioPath, 2)
	require.NoError(t, os.WriteFile(notesPath, []byte(fixtureNotes), 0644))
	require.NoError(t, os.WriteFile(labelsPath, []byte(fixtureLabels), 0644))

	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(out, 0755))

	job := batch.Job{Audio: audioPath, Notes: notesPath, Labels: labelsPath}
	opts := batch.Options{
		Engine:   linearEngine{},
		Mode:     align.ModeLabels,
		Store:    out,
		Evaluate: true,
		Timeline: true,
		BeatGrid: true,
		WarpMap:  true,
		MIDI:     true,
	}
	orig := os.Stdout
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = pw
	runErr := batch.RunOne(job, opts)
	pw.Close()
	os.Stdout = orig
	captured, err := io.ReadAll(pr)
	require.NoError(t, err)
	require.NoError(t, runErr)

	// every stored artifact is reported, the aligned notes included
	assert.Contains(string(captured), "Stored aligned notes")
	assert.Contains(string(captured), "Stored timeline")

	for _, name := range []string{
		"piece.notes.tsv",
		"piece_labels.csv",
		"piece.timeline.tsv",
		"piece.beatgrid.csv",
		"piece.keys.csv",
		"piece.cadences.csv",
		"piece.warpmap.tsv",
		"piece.aligned.mid",
	} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(err, "expected artifact %v", name)
	}

	// aligned notes carry strictly increasing onsets within the recording
	records := readTable(t, filepath.Join(out, "piece.notes.tsv"), '\t')
	require.Greater(t, len(records), 1)
	header := records[0]
	startCol := -1
	for i, name := range header {
		if name == "start" {
			startCol = i
		}
	}
	require.GreaterOrEqual(t, startCol, 0)

	prev := -1.0
	for _, rec := range records[1:] {
		start, err := strconv.ParseFloat(rec[startCol], 64)
		require.NoError(t, err)
		assert.Greater(start, prev)
		assert.GreaterOrEqual(start, 0.0)
		assert.LessOrEqual(start, 2.0)
		prev = start
	}

	// the timeline covers one full 4/4 measure without interpolation
	timeline := readTable(t, filepath.Join(out, "piece.timeline.tsv"), '\t')
	require.Len(t, timeline, 5)
	for i, row := range timeline[1:] {
		assert.Equal(strconv.Itoa(i+1), row[1])
		assert.Empty(row[4])
	}

	// key spans collapse to a single C span ending at the recording's end
	keys := readTable(t, filepath.Join(out, "piece.keys.csv"), ',')
	require.Len(t, keys, 2)
	assert.Equal("C", keys[1][3])

	// one half cadence
	cadences := readTable(t, filepath.Join(out, "piece.cadences.csv"), ',')
	require.Len(t, cadences, 2)
	assert.Equal("HC", cadences[1][1])
}
