// Package midi renders aligned notes to a Standard MIDI File so an
// alignment can be auditioned against the recording.
package midi

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/johentsch/scoresync/model"
)

const ticksPerQuarter = 960

// WriteAligned writes one SMF track holding every aligned note at its real
// onset and offset. The tempo is fixed at 60 BPM so one quarter note lasts
// exactly one second and ticks are just seconds times the resolution.
func WriteAligned(path string, notes []model.Note) error {
	type event struct {
		tick    uint32
		noteOff bool
		key     uint8
	}

	var events []event
	for i := range notes {
		n := &notes[i]
		if n.Start == nil || n.End == nil || n.Midi < 0 || n.Midi > 127 {
			continue
		}
		on := uint32(*n.Start * ticksPerQuarter)
		off := uint32(*n.End * ticksPerQuarter)
		if off <= on {
			off = on + 1
		}
		events = append(events, event{tick: on, key: uint8(n.Midi)})
		events = append(events, event{tick: off, noteOff: true, key: uint8(n.Midi)})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].noteOff && !events[j].noteOff
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var track smf.Track
	// tempo meta event: 60 BPM = 1_000_000 microseconds per beat
	const usPerBeat = 1_000_000
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(usPerBeat >> 16 & 0xFF), byte(usPerBeat >> 8 & 0xFF), byte(usPerBeat & 0xFF),
	}))

	var currentTick uint32
	for _, ev := range events {
		delta := ev.tick - currentTick
		if ev.noteOff {
			track.Add(delta, gomidi.NoteOff(0, ev.key))
		} else {
			track.Add(delta, gomidi.NoteOn(0, ev.key, 100))
		}
		currentTick = ev.tick
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return fmt.Errorf("midi: adding track: %w", err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return fmt.Errorf("midi: writing SMF: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
