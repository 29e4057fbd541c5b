package main

import "github.com/toonstats/toonstats/cmd"

func main() {
	cmd.Execute()
}
