package main

import "github.com/m72elite/m72/cmd"

func main() {
	cmd.Execute()
}
