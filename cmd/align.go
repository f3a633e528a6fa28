package cmd

import (
	"github.com/spf13/cobra"

	"github.com/johentsch/scoresync/align"
	"github.com/johentsch/scoresync/batch"
	"github.com/johentsch/scoresync/constants"
)

var alignFlags struct {
	audio       string
	notes       string
	labels      string
	csvList     string
	output      string
	mode        string
	evaluate    bool
	timeline    bool
	beatGrid    bool
	minimalGrid bool
	warpMap     bool
	midi        bool
	workers     int
	verbose     bool
}

func init() {
	alignCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runAlign()
	}
	f := alignCmd.Flags()
	f.StringVarP(&alignFlags.audio, "audio", "a", "", "path to a WAV recording")
	f.StringVarP(&alignFlags.notes, "notes", "n", "", "path to a notes table (TSV)")
	f.StringVarP(&alignFlags.labels, "labels", "l", "", "path to a labels table (TSV)")
	f.StringVarP(&alignFlags.csvList, "csv", "c", "", "path to a job list with audio/notes[/labels/name] columns")
	f.StringVarP(&alignFlags.output, "output", "o", constants.GetOutputDir(), "output file or directory")
	f.StringVarP(&alignFlags.mode, "mode", "m", "compact", "output mode: compact, labels or extended")
	f.BoolVarP(&alignFlags.evaluate, "evaluate", "e", false, "print the matching score")
	f.BoolVarP(&alignFlags.timeline, "timeline", "t", false, "also export the measure/beat timeline")
	f.BoolVar(&alignFlags.beatGrid, "beatgrid", false, "also export beat grid, key spans and cadences")
	f.BoolVar(&alignFlags.minimalGrid, "minimal", false, "beat grid with measure labels on downbeats only")
	f.BoolVarP(&alignFlags.warpMap, "warp-map", "w", false, "also export the quarterbeat-to-seconds warp map")
	f.BoolVar(&alignFlags.midi, "midi", false, "also render the aligned notes as a MIDI file")
	f.IntVar(&alignFlags.workers, "workers", 0, "concurrent batch workers (0 = auto)")
	f.BoolVarP(&alignFlags.verbose, "verbose", "v", false, "print per-step progress")
	rootCmd.AddCommand(alignCmd)
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Aligns a score with a recording",
	Long:  `Aligns a notes table with a WAV recording, either one pair (-a/-n) or a whole job list (-c).`,
}

func runAlign() error {
	mode, err := align.ParseMode(alignFlags.mode)
	if err != nil {
		return err
	}
	opts := batch.Options{
		Mode:        mode,
		Store:       alignFlags.output,
		Evaluate:    alignFlags.evaluate,
		Timeline:    alignFlags.timeline,
		BeatGrid:    alignFlags.beatGrid,
		MinimalGrid: alignFlags.minimalGrid,
		WarpMap:     alignFlags.warpMap,
		MIDI:        alignFlags.midi,
		Workers:     alignFlags.workers,
		Verbose:     alignFlags.verbose,
	}

	if alignFlags.csvList != "" {
		jobs, err := batch.ReadJobs(alignFlags.csvList)
		if err != nil {
			return err
		}
		batch.Run(jobs, opts)
		return nil
	}

	if alignFlags.audio == "" || alignFlags.notes == "" {
		return alignCmd.Usage()
	}
	job := batch.Job{
		Audio:  alignFlags.audio,
		Notes:  alignFlags.notes,
		Labels: alignFlags.labels,
	}
	return batch.RunOne(job, opts)
}
