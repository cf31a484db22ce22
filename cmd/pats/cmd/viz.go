package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gv "github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/patsnet/petri/dto"
	"github.com/patsnet/petri/graphviz"
	"github.com/patsnet/petri/patsfile"
)

var format string

// vizCmd represents the viz command
var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Create a graphviz figure from a diagram",
	Long:  `Create a graphviz figure from a .pats diagram. Inhibitor arcs get a dot head, bidirectional arcs get arrows on both ends.`,
	Run: func(cmd *cobra.Command, args []string) {
		d, err := patsfile.LoadFile(inputFile)
		if err != nil {
			fail(err)
		}
		net, err := dto.ToNet(d)
		if err != nil {
			fail(err)
		}
		name := d.Title
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
		}
		if outputDir == "" {
			outputDir = "."
		}
		if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
			fail(err)
		}
		outPath := filepath.Join(outputDir, name+"."+format)
		fmt.Printf("writing figure for %s to %s...", inputFile, outPath)
		df, err := os.Create(outPath)
		if err != nil {
			fail(err)
		}
		defer func() {
			_ = df.Close()
		}()
		w := graphviz.New(&graphviz.Config{
			Name:    name,
			Font:    graphviz.Helvetica,
			RankDir: graphviz.LeftToRight,
			Format:  gv.Format(format),
		})
		if err := w.Flush(df, net); err != nil {
			fail(err)
		}
		fmt.Println("done")
	},
}

func init() {
	rootCmd.AddCommand(vizCmd)
	vizCmd.Flags().StringVarP(&inputFile, "input", "i", "", "input diagram (.pats or .yaml)")
	vizCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	vizCmd.Flags().StringVarP(&format, "format", "f", "svg", "output format")
	_ = vizCmd.MarkFlagRequired("input")
}
