package main

import "github.com/KaramelBytes/cross-edits-cli/cmd"

func main() {
	cmd.Execute()
}
