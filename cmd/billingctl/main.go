package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/segyhp/parking-billing/internal/cli"
	"github.com/segyhp/parking-billing/internal/config"
)

func main() {
	_ = godotenv.Load()

	if err := cli.NewRootCmd(config.Load).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
