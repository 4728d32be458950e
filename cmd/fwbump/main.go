package main

import "github.com/abdul-hamid-achik/fwbump/cmd/fwbump/commands"

func main() {
	commands.Execute()
}
