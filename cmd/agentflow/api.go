package main

import (
	"context"
	"os"
	"strconv"

	"github.com/agentflow/agentflow/pkg/actions"
	"github.com/agentflow/agentflow/pkg/cmd"
	"github.com/agentflow/agentflow/pkg/log"
	"github.com/agentflow/agentflow/pkg/tracing"
	"github.com/agentflow/agentflow/pkg/triggers"
	"github.com/agentflow/agentflow/pkg/web"
	"github.com/agentflow/agentflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func apiCommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Run the agent management and trigger dispatch API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
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

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing AgentFlow API")

			persistence, err := cmd.NewPersistence(ctx, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			triggerRegistry := triggers.NewRegistry(logger)
			triggerRegistry.RegisterDefaults(logger)

			actionRegistry := actions.NewRegistry(logger)
			actionRegistry.RegisterDefaults()

			runtimeOpts := []workflow.RuntimeOption{
				workflow.WithLogger(logger),
				workflow.WithEventPublisher(eventBus),
			}

			if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
				tracer, err := tracing.NewTracer(ctx, "agentflow-api")
				if err != nil {
					return err
				}

				runtimeOpts = append(runtimeOpts, workflow.WithTracer(tracer))
			}

			runtime := workflow.NewRuntime(actionRegistry, runtimeOpts...)

			handlers := web.NewAPIHandlers(logger, persistence, triggerRegistry, workflow.NewValidator(logger), runtime)
			app := web.NewApp(handlers)

			return app.Listen(":" + strconv.Itoa(command.Int("port")))
		},
	}
}
