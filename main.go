package main

import "github.com/agentic-research/platgate/cmd"

func main() {
	cmd.Execute()
}
