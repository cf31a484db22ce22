package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/patsnet/petri/dto"
	"github.com/patsnet/petri/patsfile"
)

var (
	title     string
	newOutput string
)

// newCmd represents the new command
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Scaffold a diagram with one transition moving a token from source to sink",
	Run: func(cmd *cobra.Command, args []string) {
		p1 := uuid.NewString()
		p2 := uuid.NewString()
		t1 := uuid.NewString()
		a1 := uuid.NewString()
		a2 := uuid.NewString()
		net := &dto.PetriNet{
			Title: title,
			Places: []dto.Place{
				{ID: p1, Name: "source", Tokens: 1, X: 100, Y: 100},
				{ID: p2, Name: "sink", X: 300, Y: 100},
			},
			Transitions: []dto.Transition{
				{ID: t1, Name: "move", ArcIDs: []string{a1, a2}, X: 200, Y: 100},
			},
			Arcs: []dto.Arc{
				{ID: a1, Type: dto.TypeRegular, Incoming: p1, Outgoing: t1},
				{ID: a2, Type: dto.TypeRegular, Incoming: t1, Outgoing: p2},
			},
		}
		if err := patsfile.SaveFile(newOutput, net); err != nil {
			fail(err)
		}
		fmt.Printf("wrote %s\n", newOutput)
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVarP(&newOutput, "output", "o", "net.pats", "output file")
	newCmd.Flags().StringVar(&title, "title", "untitled", "diagram title")
}
