// Package main is the taskman binary.
package main

import "github.com/nhle/taskman/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
