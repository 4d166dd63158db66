// Command krakenctl is a small command line front end for the krakenkit
// REST and WebSocket clients.
package main

import (
	"os"

	"github.com/rs/zerolog"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
		logger.Error().Err(err).Msg("krakenctl failed")
		os.Exit(1)
	}
}
