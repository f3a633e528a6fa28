package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johentsch/scoresync/constants"
	"github.com/johentsch/scoresync/export"
	"github.com/johentsch/scoresync/meter"
	"github.com/johentsch/scoresync/score"
	"github.com/johentsch/scoresync/timeline"
	"github.com/johentsch/scoresync/util"
)

var timelineFlags struct {
	output    string
	recursive bool
	preview   bool
	beatGrid  bool
	minimal   bool
}

func init() {
	f := timelineCmd.Flags()
	f.StringVarP(&timelineFlags.output, "output", "o", constants.GetOutputDir(), "output directory")
	f.BoolVarP(&timelineFlags.recursive, "recursive", "r", false, "descend into subdirectories")
	f.BoolVarP(&timelineFlags.preview, "preview", "p", false, "print the timeline instead of writing it")
	f.BoolVar(&timelineFlags.beatGrid, "beatgrid", false, "also export the beat grid")
	f.BoolVar(&timelineFlags.minimal, "minimal", false, "beat grid with measure labels on downbeats only")
	rootCmd.AddCommand(timelineCmd)
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <file-or-dir>",
	Short: "Rebuilds timelines from aligned notes files",
	Long:  `Rebuilds the measure/beat timeline from an aligned *.notes.tsv file, or from every such file under a directory.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimeline(args[0])
	},
}

func runTimeline(src string) error {
	paths, err := util.GatherAlignedNotePaths(src, timelineFlags.recursive)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no *.notes.tsv files under %s", src)
	}

	m := meter.New()
	for _, path := range paths {
		table, err := score.ReadNotes(path)
		if err != nil {
			return err
		}
		if !table.HasStart {
			fmt.Printf("Skipping %s: no start column, align it first\n", path)
			continue
		}
		entries, err := timeline.Build(table.Notes, m)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if timelineFlags.preview {
			for _, e := range entries {
				marker := ""
				if e.Interpolated {
					marker = " (interpolated)"
				}
				fmt.Printf("m%s b%d @ %.3fs%s\n", e.Measure, e.Beat, e.Start, marker)
			}
			continue
		}

		out, err := export.WriteTimeline(timelineFlags.output, export.MakeFilename(path, ".timeline.tsv"), entries)
		if err != nil {
			return err
		}
		export.Report("timeline", out)

		if timelineFlags.beatGrid {
			grid := timeline.BeatGrid(entries, timelineFlags.minimal)
			out, err = export.WriteBeatGrid(timelineFlags.output, export.MakeFilename(path, ".beatgrid.csv"), grid, timelineFlags.minimal)
			if err != nil {
				return err
			}
			export.Report("beat grid", out)
		}
	}
	return nil
}
