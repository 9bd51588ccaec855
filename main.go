package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	selfdiscover "github.com/temirov/self-discover/cmd/self-discover"
)

func main() {
	logger := zap.Must(zap.NewProduction())

	if loadErr := godotenv.Load(); loadErr != nil && !errors.Is(loadErr, fs.ErrNotExist) {
		logger.Warn(".env not loaded", zap.Error(loadErr))
	}

	executionErr := selfdiscover.Execute()
	if executionErr != nil {
		logger.Error("command execution failed", zap.Error(executionErr))
		_ = logger.Sync()
		os.Exit(1)
	}

	_ = logger.Sync()
}
