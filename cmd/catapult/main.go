package main

import (
	"os"

	"catapult-platform/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
