package main

import "github.com/quocvuong92/grok-cli/cmd"

func main() {
	cmd.Execute()
}
