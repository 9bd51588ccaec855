package selfdiscover

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/self-discover/internal/config"
)

const (
	jsonLoggingFormat = "json"
	standardError     = "stderr"
)

// newLogger writes to stderr so stdout carries only model output.
func newLogger(root config.Root) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(root.Common.Logging.Level))
	if err != nil {
		return nil, fmt.Errorf(loggerBuildErrorFormat, err)
	}

	var loggerConfiguration zap.Config
	if strings.EqualFold(strings.TrimSpace(root.Common.Logging.Format), jsonLoggingFormat) {
		loggerConfiguration = zap.NewProductionConfig()
	} else {
		loggerConfiguration = zap.NewDevelopmentConfig()
		loggerConfiguration.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	loggerConfiguration.Level = zap.NewAtomicLevelAt(level)
	loggerConfiguration.OutputPaths = []string{standardError}
	loggerConfiguration.ErrorOutputPaths = []string{standardError}

	logger, err := loggerConfiguration.Build()
	if err != nil {
		return nil, fmt.Errorf(loggerBuildErrorFormat, err)
	}
	return logger, nil
}
