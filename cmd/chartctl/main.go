// Command chartctl computes natal charts from the command line, either against
// the configured ephemeris and geocoding services or fully offline from a
// fixture file and explicit coordinates.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
