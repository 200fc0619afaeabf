package main

import "github.com/pcesar22/domesctl/cmd/domesctl/cmd"

func main() {
	cmd.Execute()
}
