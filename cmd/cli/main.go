// combatlog - combat log parser
//
// combatlog reads game combat telemetry logs, segments them into combats and
// reports per-entity damage, healing and event-type metrics.
package main

import (
	"os"

	"github.com/ccollicutt/combatlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
