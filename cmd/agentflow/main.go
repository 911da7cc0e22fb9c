// Package main provides the agentflow command-line interface.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:                  "agentflow",
		Usage:                 "Trigger-driven agent workflow automation",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			apiCommand(),
			validateCommand(),
			executeCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
