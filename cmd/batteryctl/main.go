// Command batteryctl is a command-line client for the battery service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/vpp-platform/battery-service/internal/cli"
)

func main() {
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
