package logger

import (
	"os"

	"go.uber.org/zap"
)

func NewLogger() *zap.Logger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	cfg := zap.Config{
		Encoding:         "console",
		Level:            level,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return l
}
