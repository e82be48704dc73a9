package main

import (
	"github.com/septivank/trackmyfish-client/internal/config"
	"github.com/septivank/trackmyfish-client/internal/logging"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
}
