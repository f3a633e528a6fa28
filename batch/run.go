package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	gosync "sync"

	"github.com/google/uuid"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/johentsch/scoresync/align"
	"github.com/johentsch/scoresync/audio"
	"github.com/johentsch/scoresync/export"
	"github.com/johentsch/scoresync/meter"
	"github.com/johentsch/scoresync/midi"
	"github.com/johentsch/scoresync/model"
	"github.com/johentsch/scoresync/score"
	"github.com/johentsch/scoresync/sync"
	"github.com/johentsch/scoresync/timeline"
)

// ErrLabelsRequired is returned when 'labels' mode is requested for a
// job without a labels file.
var ErrLabelsRequired = errors.New("batch: 'labels' mode needs a labels file")

// Options control what every job produces and where.
type Options struct {
	Engine      sync.Engine
	Mode        align.Mode
	Store       string
	Evaluate    bool
	Timeline    bool
	BeatGrid    bool
	MinimalGrid bool
	WarpMap     bool
	MIDI        bool
	Workers     int
	Verbose     bool
}

// Failure records one job that could not be completed.
type Failure struct {
	Job Job
	Err error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s / %s: %v", f.Job.Audio, f.Job.Notes, f.Err)
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RunOne aligns a single audio/notes pair and writes the requested
// artifacts. It is also the single-pair path of the align command.
func RunOne(job Job, opts Options) error {
	if job.Labels == "" && opts.Mode == align.ModeLabels {
		return fmt.Errorf("%w: %s", ErrLabelsRequired, job.Notes)
	}

	samples, sampleRate, duration, err := audio.Load(job.Audio)
	if err != nil {
		return err
	}
	table, err := score.ReadNotes(job.Notes)
	if err != nil {
		return err
	}

	var rows []model.MergedRow
	if job.Labels != "" {
		labels, err := score.ReadLabels(job.Labels)
		if err != nil {
			return err
		}
		rows, err = score.MergeNotesLabels(table, labels)
		if err != nil {
			return err
		}
	}

	engine := opts.Engine
	if engine == nil {
		engine = sync.NewChromaEngine()
	}
	aligner := align.New(engine)
	aligner.Verbose = opts.Verbose
	res, err := aligner.Align(samples, sampleRate, duration, table)
	if err != nil {
		return err
	}
	if opts.Evaluate {
		align.ReportMatching(res, len(table.Notes))
	}

	base := baseName(job.Audio)
	path, err := export.WriteAlignedNotes(opts.Store, base+".notes.tsv", table.Scheme, res.Notes)
	if err != nil {
		return err
	}
	export.Report("aligned notes", path)

	name := job.Name
	switch {
	case rows != nil:
		merged, err := align.MergeAligned(res.Warped, rows, res.Duration, opts.Mode)
		if err != nil {
			return err
		}
		if name == "" {
			name = base + "_" + opts.Mode.String() + ".csv"
		}
		path, err = export.WriteMergedRows(opts.Store, name, merged, opts.Mode)
		if err != nil {
			return err
		}
		export.Report(opts.Mode.String()+" rows", path)

		if opts.BeatGrid {
			spans := timeline.KeySpans(merged, res.Duration)
			if path, err = export.WriteKeySpans(opts.Store, base+".keys.csv", spans); err != nil {
				return err
			}
			export.Report("key spans", path)
			points := timeline.Cadences(merged)
			if path, err = export.WriteCadences(opts.Store, base+".cadences.csv", points); err != nil {
				return err
			}
			export.Report("cadences", path)
		}
	case opts.Mode == align.ModeCompact:
		if name == "" {
			name = base + "_compact.csv"
		}
		path, err = export.WriteCompactNotes(opts.Store, name, res.Warped)
		if err != nil {
			return err
		}
		export.Report("compact notes", path)
	}

	if opts.Timeline || opts.BeatGrid {
		entries, err := timeline.Build(res.Notes, meter.New())
		if err != nil {
			return err
		}
		if opts.Timeline {
			if path, err = export.WriteTimeline(opts.Store, base+".timeline.tsv", entries); err != nil {
				return err
			}
			export.Report("timeline", path)
		}
		if opts.BeatGrid {
			grid := timeline.BeatGrid(entries, opts.MinimalGrid)
			if path, err = export.WriteBeatGrid(opts.Store, base+".beatgrid.csv", grid, opts.MinimalGrid); err != nil {
				return err
			}
			export.Report("beat grid", path)
		}
	}

	if opts.WarpMap {
		warp := timeline.WarpMap(res.Notes)
		if path, err = export.WriteWarpMap(opts.Store, base+".warpmap.tsv", table.Scheme, warp); err != nil {
			return err
		}
		export.Report("warp map", path)
	}

	if opts.MIDI {
		dest, err := export.Resolve(opts.Store, base+".aligned.mid")
		if err != nil {
			return err
		}
		if err := midi.WriteAligned(dest, res.Notes); err != nil {
			return err
		}
		export.Report("midi render", dest)
	}
	return nil
}

// Run processes every job, isolating per-item failures, and returns the
// ones that failed.
func Run(jobs []Job, opts Options) []Failure {
	runID := uuid.NewString()
	fmt.Printf("Starting run %v with %v jobs\n", runID, len(jobs))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 2 {
			workers = 2
		}
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(jobs)),
		mpb.PrependDecorators(
			decor.Name("Aligning: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	jobCh := make(chan Job, len(jobs))
	resCh := make(chan Failure, len(jobs))

	var wg gosync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				resCh <- Failure{Job: job, Err: RunOne(job, opts)}
			}
		}()
	}
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resCh)
	}()

	var failures []Failure
	for r := range resCh {
		bar.Increment()
		if r.Err != nil {
			failures = append(failures, r)
		}
	}
	p.Wait()

	if len(failures) > 0 {
		fmt.Printf("Run %v finished with %v failed jobs:\n", runID, len(failures))
		for _, f := range failures {
			fmt.Printf("  %v\n", f)
		}
	} else {
		fmt.Printf("Run %v finished without failures\n", runID)
	}
	return failures
}
