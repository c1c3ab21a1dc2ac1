package main

import "github.com/preppulse/auth/cmd/pulsectl/cmd"

func main() {
	cmd.Execute()
}
