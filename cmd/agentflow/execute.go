package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/agentflow/agentflow/pkg/actions"
	"github.com/agentflow/agentflow/pkg/log"
	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/triggers"
	"github.com/agentflow/agentflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func executeCommand() *cli.Command {
	return &cli.Command{
		Name:  "execute",
		Usage: "Run an agent definition file once with manual trigger input",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the agent JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Trigger input as a JSON object",
				Value:   "{}",
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

			logger := log.WithModule("execute")

			agent, err := loadAgent(command.String("file"))
			if err != nil {
				return err
			}

			var input map[string]any
			if err := json.Unmarshal([]byte(command.String("input")), &input); err != nil {
				return fmt.Errorf("failed to decode trigger input: %w", err)
			}

			if result := workflow.NewValidator(logger).Validate(agent.Workflow); !result.Valid {
				report, _ := json.MarshalIndent(result, "", "  ")
				fmt.Fprintln(os.Stderr, string(report))

				return cli.Exit("workflow has validation errors", 1)
			}

			triggerRegistry := triggers.NewRegistry(logger)
			triggerRegistry.RegisterDefaults(logger)

			payload, err := triggerRegistry.ProcessTrigger(ctx, agent.Trigger, input)
			if err != nil {
				return err
			}

			if payload == nil {
				logger.InfoContext(ctx, "Trigger input filtered out, nothing to execute")

				return nil
			}

			actionRegistry := actions.NewRegistry(logger)
			actionRegistry.RegisterDefaults()

			runtime := workflow.NewRuntime(actionRegistry, workflow.WithLogger(logger))
			execution := runtime.Execute(ctx, agent, payload)

			record, err := json.MarshalIndent(execution, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, string(record))

			if execution.Status == models.ExecutionStatusFailed {
				return cli.Exit("execution failed", 1)
			}

			return nil
		},
	}
}

func loadAgent(path string) (*models.Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent file: %w", err)
	}

	var agent models.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, fmt.Errorf("failed to decode agent file: %w", err)
	}

	return &agent, nil
}
