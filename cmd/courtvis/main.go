package main

import "github.com/MeKo-Tech/courtvis/cmd/courtvis/cmd"

func main() {
	cmd.Execute()
}
