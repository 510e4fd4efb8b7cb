package main

import "bukinn/cmd/ebookctl/command"

func main() {
	command.Execute()
}
