package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/patsnet/petri/dto"
	"github.com/patsnet/petri/patsfile"
	"github.com/patsnet/petri/service"
	"github.com/patsnet/petri/sim"
)

var (
	deterministic bool
	steps         int
	seed          int64
	outputFile    string
)

// stepCmd represents the step command
var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Run simulation steps on a diagram",
	Long: `Run one or more simulation steps on a .pats diagram and print the
resulting marking. A deterministic conflict stops the run; resolve it with
"pats resolve".`,
	Run: func(cmd *cobra.Command, args []string) {
		net, err := patsfile.LoadFile(inputFile)
		if err != nil {
			fail(err)
		}
		net.DeterministicMode = deterministic

		opts := make([]sim.Option, 0, 1)
		if cmd.Flags().Changed("seed") {
			opts = append(opts, sim.WithSource(rand.New(rand.NewSource(seed))))
		}
		engine := service.New(zap.NewNop(), service.WithSimulator(sim.New(opts...)))

		for i := 0; i < steps; i++ {
			out, err := engine.ProcessStep(context.Background(), net)
			if err != nil {
				fail(err)
			}
			net = out
			if paused(net) {
				fmt.Println("paused on conflict between:")
				for _, t := range net.Transitions {
					if t.Enabled {
						fmt.Printf("  %s\n", t.ID)
					}
				}
				break
			}
		}
		printMarking(net)
		if outputFile != "" {
			if err := patsfile.SaveFile(outputFile, net); err != nil {
				fail(err)
			}
		}
	},
}

func paused(net *dto.PetriNet) bool {
	if !net.DeterministicMode {
		return false
	}
	enabled := 0
	for _, t := range net.Transitions {
		if t.Enabled {
			enabled++
		}
	}
	return enabled > 1
}

func printMarking(net *dto.PetriNet) {
	places := make([]dto.Place, len(net.Places))
	copy(places, net.Places)
	sort.Slice(places, func(i, j int) bool { return places[i].ID < places[j].ID })
	for _, p := range places {
		fmt.Printf("%s: %d\n", p.ID, p.Tokens)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func init() {
	rootCmd.AddCommand(stepCmd)
	stepCmd.Flags().StringVarP(&inputFile, "input", "i", "", "input diagram (.pats or .yaml)")
	stepCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the resulting diagram here")
	stepCmd.Flags().BoolVarP(&deterministic, "deterministic", "d", false, "pause on conflicts instead of picking randomly")
	stepCmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of steps to run")
	stepCmd.Flags().Int64Var(&seed, "seed", 0, "seed for the conflict arbiter")
	_ = stepCmd.MarkFlagRequired("input")
}
