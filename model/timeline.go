package model

// TimelineEntry is one (measure, beat) position of the derived beat grid
// with its real timestamp. Interpolated marks beats no note landed on,
// whose Start was filled in linearly from the neighbors.
type TimelineEntry struct {
	Measure      string
	Beat         int
	Timesig      string
	Start        float64
	Interpolated bool
}

// BeatGridRow is the export form of a timeline entry.
type BeatGridRow struct {
	Time             float64
	Measure          int
	IsFirstInMeasure bool

	// Omitted from the minimal three-column form.
	Beat         int
	MeasureLabel string
}

// KeySpan is a condensed run of identical local-key labels. Level and Color
// are annotation-layer fields expected by downstream visualization.
type KeySpan struct {
	Start           float64
	End             float64
	DurationSeconds float64
	Key             string
	AnnotationLabel string
	Level           int
	Color           string
}

// CadencePoint is a cadence annotation as a point event.
type CadencePoint struct {
	Time  float64
	Label string
}

// WarpMapEntry maps a symbolic quarterbeat position to real seconds.
type WarpMapEntry struct {
	Quarterbeats float64
	Seconds      float64
}

// RecordingMetadata describes a recording, looked up by audio filename.
type RecordingMetadata struct {
	Artist  string
	Release string
	Title   string
	Year    uint
}
