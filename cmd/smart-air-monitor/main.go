package main

import (
	"os"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
