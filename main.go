package main

import "github.com/mpapenbr/raceanalysis-service/cmd"

func main() {
	cmd.Execute()
}
