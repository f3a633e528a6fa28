package sync

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/johentsch/scoresync/model"
)

// quantization steps applied to max-normalized chroma columns. Levels grow
// logarithmically so quiet harmonic content still contributes.
var (
	quantThresholds = [4]float64{0.05, 0.1, 0.2, 0.4}
	quantLevels     = [4]float64{0.25, 0.25, 0.25, 0.25}
)

// ChromaEngine is the default Engine implementation: STFT-based quantized
// chroma for audio, rasterized pitch classes for symbolic notes, and a
// weighted-step dynamic-time-warping path.
type ChromaEngine struct {
	// FrameSize is the STFT window length in samples.
	FrameSize int
}

// NewChromaEngine returns a ChromaEngine with the default window length.
func NewChromaEngine() *ChromaEngine {
	return &ChromaEngine{FrameSize: 4096}
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// binPitch converts an FFT bin to a fractional MIDI pitch, compensating the
// given tuning offset in cents. Returns NaN for the DC bin.
func binPitch(bin, frameSize, sampleRate int, tuningCents float64) float64 {
	if bin == 0 {
		return math.NaN()
	}
	freq := float64(bin) * float64(sampleRate) / float64(frameSize)
	return 69 + 12*math.Log2(freq/440) - tuningCents/100
}

// EstimateTuning averages the cent deviation of spectral peaks from the
// nearest equal-tempered semitone, weighted by magnitude.
func (e *ChromaEngine) EstimateTuning(samples []float64, sampleRate int) float64 {
	n := e.FrameSize
	if len(samples) < n {
		return 0
	}
	fft := fourier.NewFFT(n)
	win := hann(n)
	buf := make([]float64, n)
	hop := n // coarse hop, tuning is a global property

	var weighted, total float64
	for start := 0; start+n <= len(samples); start += hop {
		for k := 0; k < n; k++ {
			buf[k] = samples[start+k] * win[k]
		}
		coeffs := fft.Coefficients(nil, buf)
		for bin := 1; bin < len(coeffs); bin++ {
			mag := cmplxAbs(coeffs[bin])
			if mag < 1e-6 {
				continue
			}
			pitch := binPitch(bin, n, sampleRate, 0)
			if pitch < 24 || pitch > 108 {
				continue
			}
			dev := pitch - math.Round(pitch)
			weighted += dev * mag
			total += mag
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * weighted / total // semitone fraction -> cents
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// AudioFeatures computes quantized 12-bin chroma at the given frame rate.
func (e *ChromaEngine) AudioFeatures(samples []float64, sampleRate int, tuningCents float64, frameRate int) model.FeatureMatrix {
	n := e.FrameSize
	hop := sampleRate / frameRate
	frames := 0
	if len(samples) > 0 {
		frames = 1 + (len(samples)-1)/hop
	}
	m := newMatrix(12, frames, frameRate)
	if frames == 0 {
		return m
	}

	fft := fourier.NewFFT(n)
	win := hann(n)
	buf := make([]float64, n)
	for f := 0; f < frames; f++ {
		start := f*hop - n/2
		for k := 0; k < n; k++ {
			idx := start + k
			if idx >= 0 && idx < len(samples) {
				buf[k] = samples[idx] * win[k]
			} else {
				buf[k] = 0
			}
		}
		coeffs := fft.Coefficients(nil, buf)
		for bin := 1; bin < len(coeffs); bin++ {
			pitch := binPitch(bin, n, sampleRate, tuningCents)
			if pitch < 21 || pitch > 108 {
				continue
			}
			p := int(math.Round(pitch))
			mag := cmplxAbs(coeffs[bin])
			m.Data[((p%12)+12)%12][f] += mag * mag
		}
	}
	quantize(m)
	return m
}

// SymbolicFeatures rasterizes a normalized note list into the same chroma
// representation, one quarterbeat per second.
func (e *ChromaEngine) SymbolicFeatures(notes []model.NormalizedNote, frameRate int) model.FeatureMatrix {
	var maxEnd float64
	for _, n := range notes {
		if n.End > maxEnd {
			maxEnd = n.End
		}
	}
	frames := int(math.Ceil(maxEnd*float64(frameRate))) + 1
	m := newMatrix(12, frames, frameRate)
	for _, n := range notes {
		first := int(n.Start * float64(frameRate))
		last := int(n.End * float64(frameRate))
		if last <= first {
			last = first + 1 // zero-length events still leave an onset mark
		}
		bin := ((n.Pitch % 12) + 12) % 12
		for f := first; f < last && f < frames; f++ {
			if f >= 0 {
				m.Data[bin][f] += n.Velocity
			}
		}
	}
	quantize(m)
	return m
}

func newMatrix(bins, frames, frameRate int) model.FeatureMatrix {
	data := make([][]float64, bins)
	for b := range data {
		data[b] = make([]float64, frames)
	}
	return model.FeatureMatrix{Data: data, FrameRate: frameRate}
}

// quantize max-normalizes every column and maps it onto discrete levels.
func quantize(m model.FeatureMatrix) {
	bins, frames := m.Bins(), m.Frames()
	for f := 0; f < frames; f++ {
		var max float64
		for b := 0; b < bins; b++ {
			if m.Data[b][f] > max {
				max = m.Data[b][f]
			}
		}
		if max == 0 {
			continue
		}
		for b := 0; b < bins; b++ {
			v := m.Data[b][f] / max
			var q float64
			for i, th := range quantThresholds {
				if v >= th {
					q += quantLevels[i]
				}
			}
			m.Data[b][f] = q
		}
	}
}
