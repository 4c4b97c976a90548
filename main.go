package main

import "github.com/kozaktomas/branch-greeter/cmd"

func main() {
	cmd.Execute()
}
