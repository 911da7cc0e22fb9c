package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/agentflow/agentflow/pkg/log"
	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a workflow definition file and print the report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the workflow JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			wf, err := loadWorkflow(command.String("file"))
			if err != nil {
				return err
			}

			result := workflow.NewValidator(log.WithModule("validate")).Validate(wf)

			report, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, string(report))

			if !result.Valid {
				return cli.Exit("workflow has validation errors", 1)
			}

			return nil
		},
	}
}

func loadWorkflow(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var wf models.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to decode workflow file: %w", err)
	}

	return &wf, nil
}
