package main

import "github.com/emulab/tempo/cmd/tempo/cmd"

func main() {
	cmd.Execute()
}
