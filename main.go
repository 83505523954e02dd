package main

import cmd "postwatch/cmd/postwatch"

func main() {
	cmd.Execute()
}
