package main

import "github.com/papapumpkin/hubscan/cmd"

func main() {
	cmd.Execute()
}
