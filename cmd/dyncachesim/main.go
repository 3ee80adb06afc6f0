// Command dyncachesim simulates a processor front end whose memory requests
// are routed by the dynamic cache controller.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/dyncache/cmd/dyncachesim/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
