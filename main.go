package main

import "github.com/mselser95/overlay-build/cmd"

func main() {
	cmd.Execute()
}
