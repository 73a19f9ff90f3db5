package main

import "github.com/everyfind/everyfind/cmd"

func main() {
	cmd.Execute()
}
