package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

// embeddedConfig holds the default application configuration.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C stops the extraction between lines and still removes the staging file.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Stopping...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	root := newRootCmd(ctx, envFilePath, embeddedConfig)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", exception.ExtractErrorMessage(err))
		logger.Debugf("%+v", err)
		os.Exit(exception.ExitCode(err))
	}
}
