// Package main provides an operator CLI for the identity gateway.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/allthepins/identity-gateway/internal/auth"
	"github.com/allthepins/identity-gateway/internal/config"
	"github.com/allthepins/identity-gateway/internal/idp/cognito"
	"github.com/allthepins/identity-gateway/internal/platform/ipcrypt"
	"github.com/allthepins/identity-gateway/internal/platform/jwt"
	"github.com/allthepins/identity-gateway/internal/platform/logger"
	"github.com/allthepins/identity-gateway/internal/platform/metrics"
	"github.com/allthepins/identity-gateway/internal/platform/password"
	"github.com/allthepins/identity-gateway/internal/platform/secrethash"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{out: os.Stdout, errOut: os.Stderr, connect: connect, registry: prometheus.NewRegistry()}
	if err := c.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// connect builds the gateway from the environment. Gateway metrics are
// registered on reg.
func connect(ctx context.Context, errOut io.Writer, reg prometheus.Registerer) (gateway, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log := logger.New(errOut, cfg.Log.ServiceName, level)
	log.Debug("configuration loaded", "config", cfg)

	client, err := cognito.NewClient(ctx, cognito.ClientConfig{
		Region:          cfg.Cognito.Region,
		Endpoint:        cfg.Cognito.Endpoint,
		AccessKeyID:     cfg.Cognito.AccessKeyID,
		SecretAccessKey: cfg.Cognito.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	provider, err := cognito.New(client, cfg.Cognito.UserPoolID, cfg.Cognito.ClientID)
	if err != nil {
		return nil, fmt.Errorf("creating cognito provider: %w", err)
	}

	var ipCrypt ipcrypt.Encryptor
	if cfg.Gateway.IPCryptKey != "" {
		ipCrypt, err = ipcrypt.New(cfg.Gateway.IPCryptKey)
		if err != nil {
			return nil, fmt.Errorf("creating IP encryptor: %w", err)
		}
	}

	service, err := auth.NewService(auth.Config{
		Provider: provider,
		Credentials: secrethash.Credentials{
			ClientID:     cfg.Cognito.ClientID,
			ClientSecret: cfg.Cognito.ClientSecret,
		},
		Passwords:            password.New(),
		Tokens:               jwt.New(),
		IPCrypt:              ipCrypt,
		Metrics:              metrics.New(reg),
		Logger:               log,
		AuthEventsMaxResults: int32(cfg.Gateway.AuthEventsMaxResults),
		TenantNameAttribute:  cfg.Cognito.TenantNameAttr,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gateway: %w", err)
	}

	return service, nil
}
