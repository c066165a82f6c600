package main

import "github.com/mwanner/cargo-debianize/cmd"

var version = "develop"

func main() {
	cmd.Execute(version)
}
