package main

import "github.com/pocketsafe/pocketsafe/cmd"

func main() {
	cmd.Execute()
}
