package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scoresync",
	Short: "Score-to-audio alignment",
	Long:  `Aligns symbolic score tables with audio recordings and exports timelines.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
