package main

import "github.com/patsnet/petri/cmd/pats/cmd"

func main() {
	cmd.Execute()
}
