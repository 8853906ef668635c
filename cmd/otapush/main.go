//go:build !tinygo

// Command otapush sends a firmware image to a watch over MQTT or WebSocket.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
