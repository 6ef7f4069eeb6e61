package main

import "github.com/lucabello/docker-captain/cmd"

func main() {
	cmd.Execute()
}
