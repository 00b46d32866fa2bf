package main

import "github.com/virus-evolution/assemblender/cmd"

func main() {
	cmd.Execute()
}
