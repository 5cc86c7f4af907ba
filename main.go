package main

import "github.com/vnetsim/vnetsim/cmd"

func main() {
	cmd.Execute()
}
