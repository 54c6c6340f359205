package main

import (
	"os"

	"fte-grid-service/cmd/ftegrid/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	os.Exit(cmd.Execute())
}
