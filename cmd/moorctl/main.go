package main

import "github.com/moorl/github-actions/internal/cmd"

func main() {
	cmd.Execute()
}
