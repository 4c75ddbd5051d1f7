package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// loadConfig reads configuration and installs the process logger.
func loadConfig() (config.Config, error) {
	if err := config.Load(); err != nil {
		return config.Config{}, err
	}
	cfg := config.Current()
	logger.Setup(cfg.AppEnv, os.Stdout)
	return cfg, nil
}

// bootKernel wires the whole application. Callers must Close it.
func bootKernel(ctx context.Context) (*kernel.Kernel, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return kernel.Boot(ctx, cfg)
}

// bootDB opens only the ops database.
func bootDB() error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	return database.Connect()
}

// bootMongo opens only the document store.
func bootMongo(ctx context.Context) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	return database.ConnectMongo(ctx)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
