package sync

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johentsch/scoresync/model"
)

func singleBinMatrix(bin, frames int) model.FeatureMatrix {
	m := newMatrix(12, frames, 10)
	for f := 0; f < frames; f++ {
		m.Data[bin][f] = 1
	}
	return m
}

func TestShiftChroma(t *testing.T) {
	assert := assert.New(t)

	m := singleBinMatrix(0, 4)
	shifted := ShiftChroma(m, 3)
	assert.Equal(1.0, shifted.Data[3][0])
	assert.Equal(0.0, shifted.Data[0][0])

	assert.Equal(m.Data, ShiftChroma(m, 12).Data)
	assert.Equal(1.0, ShiftChroma(m, -1).Data[11][0])
}

func arpeggio() []model.NormalizedNote {
	var notes []model.NormalizedNote
	pitches := []int{60, 64, 67, 72, 67, 64}
	for i, p := range pitches {
		start := float64(i) + 1
		notes = append(notes, model.NormalizedNote{
			Start: start, End: start + 1, Duration: 1, Pitch: p, Velocity: 1, Instrument: "piano",
		})
	}
	return notes
}

func TestSymbolicFeatures(t *testing.T) {
	assert := assert.New(t)
	e := NewChromaEngine()

	m := e.SymbolicFeatures(arpeggio(), 10)
	assert.Equal(12, m.Bins())
	assert.Equal(10, m.FrameRate)

	// C sounds during [1s, 2s), nothing before
	assert.Equal(1.0, m.Data[0][15])
	for b := 0; b < 12; b++ {
		assert.Equal(0.0, m.Data[b][5])
	}
	// E during [2s, 3s)
	assert.Equal(1.0, m.Data[4][25])
	assert.Equal(0.0, m.Data[0][25])
}

func TestSymbolicFeaturesZeroLengthOnset(t *testing.T) {
	assert := assert.New(t)
	e := NewChromaEngine()

	notes := []model.NormalizedNote{{Start: 1, End: 1, Pitch: 62, Velocity: 1}}
	m := e.SymbolicFeatures(notes, 10)
	assert.Equal(1.0, m.Data[2][10])
}

func TestDTWPathIdenticalSequences(t *testing.T) {
	assert := assert.New(t)
	e := NewChromaEngine()

	m := e.SymbolicFeatures(arpeggio(), 4)
	path := dtwPath(m, m, [3]float64{1.5, 1.5, 2})

	require.NotEmpty(t, path)
	assert.Equal(model.WarpPoint{Audio: 0, Score: 0}, path[0])
	assert.Equal(model.WarpPoint{Audio: m.Frames() - 1, Score: m.Frames() - 1}, path[len(path)-1])
	for _, p := range path {
		assert.Equal(p.Audio, p.Score)
	}
}

func TestWarpingPathCoversBothSequences(t *testing.T) {
	assert := assert.New(t)
	e := NewChromaEngine()

	// symbolic at 4 fps, "audio" the same content at 8 fps
	sym := e.SymbolicFeatures(arpeggio(), 4)
	audio := e.SymbolicFeatures(arpeggio(), 8)

	path, err := e.WarpingPath(audio, sym, 4, [3]float64{1.5, 1.5, 2}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	assert.Equal(model.WarpPoint{Audio: 0, Score: 0}, path[0])
	assert.Equal(audio.Frames()-1, path[len(path)-1].Audio)
	assert.Equal(sym.Frames()-1, path[len(path)-1].Score)
	for i := 1; i < len(path); i++ {
		assert.GreaterOrEqual(path[i].Audio, path[i-1].Audio)
		assert.GreaterOrEqual(path[i].Score, path[i-1].Score)
	}
}

func TestWarpingPathPooledFallback(t *testing.T) {
	assert := assert.New(t)
	e := NewChromaEngine()

	sym := e.SymbolicFeatures(arpeggio(), 8)
	audio := e.SymbolicFeatures(arpeggio(), 8)

	// force the coarse pass
	path, err := e.WarpingPath(audio, sym, 8, [3]float64{1.5, 1.5, 2}, 64)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.Equal(audio.Frames()-1, path[len(path)-1].Audio)
	assert.Equal(sym.Frames()-1, path[len(path)-1].Score)
}

func TestWarpingPathEmptyInput(t *testing.T) {
	assert := assert.New(t)
	e := NewChromaEngine()

	empty := newMatrix(12, 0, 10)
	full := singleBinMatrix(0, 4)
	_, err := e.WarpingPath(empty, full, 10, [3]float64{1, 1, 1}, 0)
	assert.ErrorIs(err, ErrEmptyFeatures)
	_, err = e.WarpingPath(full, empty, 10, [3]float64{1, 1, 1}, 0)
	assert.ErrorIs(err, ErrEmptyFeatures)
}

func TestOptimalShiftRecoversRotation(t *testing.T) {
	assert := assert.New(t)
	e := NewChromaEngine()

	sym := e.SymbolicFeatures(arpeggio(), 10)
	for _, shift := range []int{0, 2, 5, 11} {
		audio := ShiftChroma(sym, shift)
		assert.Equal(shift, e.OptimalShift(audio, sym), "shift %v", shift)
	}
}

func sine(freq float64, sampleRate int, seconds float64) []float64 {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return samples
}

func TestEstimateTuningConcertPitch(t *testing.T) {
	assert := assert.New(t)
	e := NewChromaEngine()

	samples := sine(440, 22050, 2)
	cents := e.EstimateTuning(samples, 22050)
	assert.InDelta(0, cents, 25)
}

func TestAudioFeaturesDominantPitchClass(t *testing.T) {
	assert := assert.New(t)
	e := NewChromaEngine()

	samples := sine(440, 22050, 2)
	m := e.AudioFeatures(samples, 22050, 0, 50)
	require.Equal(t, 12, m.Bins())
	require.Greater(t, m.Frames(), 0)

	mid := m.Frames() / 2
	assert.Equal(1.0, m.Data[9][mid]) // A
	for b := 0; b < 12; b++ {
		if b != 9 {
			assert.LessOrEqual(m.Data[b][mid], 0.75)
		}
	}
}
