package main

import (
	"flag"
	"log/slog"
	"os"

	_ "net/http/pprof"

	"github.com/driptide/irrigationd/pkg/daemon"
)

func main() {
	// parse the command-line flags
	flag.Parse()

	if err := daemon.Initialize(); err != nil {
		slog.Error("failed to start the irrigation daemon", "error", err)
		os.Exit(1)
	}
}
