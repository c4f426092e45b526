// Package main is the entry point for the cszones CLI tool, which analyzes
// recorded CS match telemetry for chokepoint dominance, site entry timing,
// and positional heat inside named areas.
package main

import "github.com/pable/go-cs-zones/cmd"

func main() {
	cmd.Execute()
}
