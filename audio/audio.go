// Package audio loads recordings for the alignment pipeline.
package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ErrNotWAV indicates a file the decoder does not recognize.
var ErrNotWAV = errors.New("audio: not a valid WAV file")

// Load decodes a WAV file into mono float64 samples in [-1, 1] and returns
// them together with the sample rate and the total duration in seconds.
// Multi-channel recordings are downmixed by averaging.
func Load(path string) (samples []float64, sampleRate int, duration float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrNotWAV, path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("audio: decoding %s: %w", path, err)
	}

	sampleRate = buf.Format.SampleRate
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float64(int64(1) << (dec.BitDepth - 1))
	if scale == 0 {
		scale = 1 << 15
	}

	frames := len(buf.Data) / channels
	samples = make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}
	duration = float64(frames) / float64(sampleRate)
	return samples, sampleRate, duration, nil
}
