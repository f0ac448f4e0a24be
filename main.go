package main

import "appointment-watcher/cmd"

func main() {
	cmd.Execute()
}
