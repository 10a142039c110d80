// Command simwatch-lambda serves the simulation query API as an AWS Lambda
// function behind API Gateway. Configuration comes from environment
// variables; there is no config file or watcher in this deployment.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jmallard/simwatch/internal/app"
	"github.com/jmallard/simwatch/internal/config"
	"github.com/jmallard/simwatch/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid environment configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg, config.DefaultRegistry())
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		os.Exit(1)
	}

	handler, err := server.NewLambdaHandler(application.Service(), cfg.Server.APIKey)
	if err != nil {
		slog.Error("failed to build handler", "err", err)
		os.Exit(1)
	}

	slog.Info("simwatch lambda ready",
		"llm_provider", cfg.LLM.Provider,
		"store_driver", cfg.Store.Driver,
	)
	lambda.Start(handler.Handle)
}
