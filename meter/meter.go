// Package meter converts between symbolic time units (fractional whole-note
// offsets, time signatures) and continuous beat coordinates.
package meter

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var (
	// ErrBadTimesig indicates a time signature that is not "<int>/<int>".
	ErrBadTimesig = errors.New("meter: malformed time signature")

	// ErrNonIntegerBeats indicates a time signature whose implied beat
	// count is not a whole number.
	ErrNonIntegerBeats = errors.New("meter: non-integer number of beats")
)

// Model owns the per-run lookup tables for beat sizes, beat counts and
// onset-to-beat conversions, which are computed once per distinct input. A
// Model is not safe for concurrent use; each alignment job owns its own.
type Model struct {
	beatSizes map[string]*big.Rat
	beatCount map[string]int
	beats     map[beatKey]*big.Rat
}

type beatKey struct {
	onset     string
	timesig   string
	firstBeat int64
}

// New returns an empty Model.
func New() *Model {
	return &Model{
		beatSizes: make(map[string]*big.Rat),
		beatCount: make(map[string]int),
		beats:     make(map[beatKey]*big.Rat),
	}
}

func parseTimesig(ts string) (num, den int, err error) {
	parts := strings.Split(ts, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTimesig, ts)
	}
	num, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTimesig, ts)
	}
	den, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || num <= 0 || den <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTimesig, ts)
	}
	return num, den, nil
}

// BeatSize returns the beat unit of a time signature as a fraction of a
// whole note: '2/2' => 1/2, '4/4' => 1/4, '4/8' => 1/8. If the numerator is
// a higher multiple of 3 the threefold size is returned ('12/8' => 3/8,
// '6/4' => 3/4).
func (m *Model) BeatSize(timesig string) (*big.Rat, error) {
	if r, ok := m.beatSizes[timesig]; ok {
		return r, nil
	}
	num, den, err := parseTimesig(timesig)
	if err != nil {
		return nil, err
	}
	beatNum := 1
	if num%3 == 0 && num > 3 {
		beatNum = 3
	}
	r := big.NewRat(int64(beatNum), int64(den))
	m.beatSizes[timesig] = r
	return r, nil
}

// OnsetToBeat turns an offset from the measure's beginning, expressed as a
// fraction of a whole note, into an exact beat position. The integer part
// of the quotient plus firstBeat is the beat number; the remainder divided
// by the beat size is the sub-beat fraction.
func (m *Model) OnsetToBeat(onset *big.Rat, timesig string, firstBeat int64) (*big.Rat, error) {
	key := beatKey{onset: onset.RatString(), timesig: timesig, firstBeat: firstBeat}
	if r, ok := m.beats[key]; ok {
		return new(big.Rat).Set(r), nil
	}
	size, err := m.BeatSize(timesig)
	if err != nil {
		return nil, err
	}
	q := new(big.Rat).Quo(onset, size)
	q.Add(q, new(big.Rat).SetInt64(firstBeat))
	m.beats[key] = new(big.Rat).Set(q)
	return q, nil
}

// OnsetToBeatRounded is OnsetToBeat rounded to the given number of
// decimals, for display and grid construction. Exactness tests must use
// OnsetToBeat instead.
func (m *Model) OnsetToBeatRounded(onset *big.Rat, timesig string, firstBeat int64, decimals int) (float64, error) {
	b, err := m.OnsetToBeat(onset, timesig, firstBeat)
	if err != nil {
		return 0, err
	}
	f, _ := b.Float64()
	scale := math.Pow10(decimals)
	return math.Round(f*scale) / scale, nil
}

// BeatsPerMeasure derives the number of beats a full measure of the given
// signature contains, by evaluating the beat position of the measure's full
// duration with firstBeat 0. A non-integer result is an arithmetic
// inconsistency and fails.
func (m *Model) BeatsPerMeasure(timesig string) (int, error) {
	if n, ok := m.beatCount[timesig]; ok {
		return n, nil
	}
	num, den, err := parseTimesig(timesig)
	if err != nil {
		return 0, err
	}
	full := big.NewRat(int64(num), int64(den))
	b, err := m.OnsetToBeat(full, timesig, 0)
	if err != nil {
		return 0, err
	}
	if !b.IsInt() {
		return 0, fmt.Errorf("%w: %q implies %s beats", ErrNonIntegerBeats, timesig, b.RatString())
	}
	n := int(b.Num().Int64())
	m.beatCount[timesig] = n
	return n, nil
}

// IsIntegerBeat reports whether a beat position sits exactly on a beat.
func IsIntegerBeat(beat *big.Rat) bool {
	return beat.IsInt()
}
