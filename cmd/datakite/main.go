// Package main provides the entry point for the datakite CLI tool.
package main

import "github.com/datakite/datakite/cmd/datakite/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
