package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johentsch/scoresync/score"
	"github.com/johentsch/scoresync/util"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <notes-file>",
	Short: "Inspects a notes table",
	Long:  `Prints a summary of a notes table: scheme, row count, measures, time signatures, aligned time span.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func inspect(path string) error {
	table, err := score.ReadNotes(path)
	if err != nil {
		return err
	}

	measures := make(map[string]bool)
	timesigs := make(map[string]int)
	firstStart, lastEnd := 0.0, 0.0
	aligned := 0
	for i := range table.Notes {
		n := &table.Notes[i]
		measures[n.MeasureLabel()] = true
		timesigs[n.Timesig]++
		if n.Start != nil {
			if aligned == 0 || *n.Start < firstStart {
				firstStart = *n.Start
			}
			aligned++
		}
		if n.End != nil && *n.End > lastEnd {
			lastEnd = *n.End
		}
	}

	fmt.Printf("path: %v\n", table.Path)
	fmt.Printf("scheme: %v\n", table.Scheme.Column())
	fmt.Printf("notes: %v\n", len(table.Notes))
	fmt.Printf("measures: %v\n", len(measures))
	for _, ts := range util.SortedKeys(timesigs) {
		fmt.Printf("timesig %v: %v notes\n", ts, timesigs[ts])
	}
	if table.HasStart {
		fmt.Printf("aligned: %v notes, %.3fs to %.3fs\n", aligned, firstStart, lastEnd)
	} else {
		fmt.Println("aligned: no")
	}
	return nil
}
