package main

import "github.com/wayfarer/wayfarer/cmd/wayfarer/cmd"

func main() {
	cmd.Execute()
}
