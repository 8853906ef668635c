//go:build tinygo

package main

import (
	"watch/app"
	"watch/hal"
)

func main() {
	app.Run(hal.New())
}
