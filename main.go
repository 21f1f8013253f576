package main

import "github.com/patrikzak/attendo/cmd"

func main() {
	cmd.Execute()
}
