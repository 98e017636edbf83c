// Package main is the mastery command. "serve" runs the HTTP API; the other
// subcommands are what an external scheduler (cron, a systemd timer) runs
// for the daily review plan and the weekly report, plus maintenance.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
