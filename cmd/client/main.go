package main

import "github.com/tourlink/server/cmd/client/cmd"

func main() {
	cmd.Execute()
}
