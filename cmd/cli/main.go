// drivelog - Drive-Test Log Decoder
//
// drivelog turns drive-test recordings into geolocated radio measurements,
// inferred network events and signaling messages.
package main

import (
	"os"

	"github.com/ccollicutt/drivelog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
