package cmd

import (
	"github.com/spf13/cobra"
)

var (
	inputFile string
	outputDir string
)

// rootCmd represents the root command
var rootCmd = &cobra.Command{
	Use:   "pats",
	Short: "pats works with saved Petri net diagrams",
	Long:  `pats simulates, resolves, renders and scaffolds .pats diagrams from the command line.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
