package main

import "github.com/mveitas/cclens/cmd"

func main() {
	cmd.Execute()
}
