package main

import "github.com/andrejsstepanovs/ora2pgconf/cmd"

func main() {
	cmd.Execute()
}
