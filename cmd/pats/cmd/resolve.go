package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/patsnet/petri/dto"
	"github.com/patsnet/petri/patsfile"
	"github.com/patsnet/petri/service"
)

var (
	selected             string
	resolveDeterministic bool
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Fire a chosen transition of a paused diagram",
	Run: func(cmd *cobra.Command, args []string) {
		net, err := patsfile.LoadFile(inputFile)
		if err != nil {
			fail(err)
		}
		net.DeterministicMode = resolveDeterministic
		engine := service.New(zap.NewNop())
		out, err := engine.ResolveConflict(context.Background(), &dto.ResolveRequest{
			PetriNet:             *net,
			SelectedTransitionID: selected,
		})
		if err != nil {
			fail(err)
		}
		if paused(out) {
			fmt.Println("still paused on conflict between:")
			for _, t := range out.Transitions {
				if t.Enabled {
					fmt.Printf("  %s\n", t.ID)
				}
			}
		}
		printMarking(out)
		if outputFile != "" {
			if err := patsfile.SaveFile(outputFile, out); err != nil {
				fail(err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&inputFile, "input", "i", "", "input diagram (.pats or .yaml)")
	resolveCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the resulting diagram here")
	resolveCmd.Flags().StringVarP(&selected, "transition", "t", "", "id of the transition to fire")
	resolveCmd.Flags().BoolVarP(&resolveDeterministic, "deterministic", "d", true, "pause again on further conflicts")
	_ = resolveCmd.MarkFlagRequired("input")
	_ = resolveCmd.MarkFlagRequired("transition")
}
