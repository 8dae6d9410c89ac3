package main

import "ratings/cmd/cli/command"

func main() {
	command.Execute()
}
