package main

import "github.com/rnwolfe/devlog/cmd"

func main() {
	cmd.Execute()
}
