package main

import "github.com/telebrief/telebrief/cmd"

func main() {
	cmd.Execute()
}
