// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-beckn-go.
//
// sage-beckn-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-beckn-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-beckn-go.  If not, see <https://www.gnu.org/licenses/>.

// Command bap runs a Beckn Application Platform that signs searches, forwards
// them to the gateway and acknowledges the gateway's callbacks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sage-x-project/sage-beckn-go/pkg/config"
	"github.com/sage-x-project/sage-beckn-go/pkg/keys"
	"github.com/sage-x-project/sage-beckn-go/pkg/observability"
	"github.com/sage-x-project/sage-beckn-go/pkg/server"
	"github.com/sage-x-project/sage-beckn-go/pkg/signer"
	"github.com/sage-x-project/sage-beckn-go/pkg/transport"
	"github.com/sage-x-project/sage-beckn-go/pkg/version"
)

const serviceName = "beckn-bap"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: configs/config.yaml or config.yaml)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(serviceName, version.Version, os.Stdout)
	if err := run(ctx, *configPath, logger); err != nil {
		logger.Fatal(err, "BAP server failed")
	}
}

func run(ctx context.Context, configPath string, logger *observability.Logger) error {
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	shutdownTracing, err := observability.InitTracing(ctx, serviceName, version.Version)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			logger.Error(err, "failed to flush traces")
		}
	}()

	kp, err := loadKeys(cfg.KeysDir)
	if err != nil {
		return err
	}
	logger.WithSubscriber(cfg.BapID).Info("signing key loaded: " + kp.PublicKeyBase64())

	format, err := signer.ParseHeaderFormat(cfg.HeaderFormat)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	gateway := transport.NewGatewayTransport(
		cfg.GatewayURL,
		cfg.BapID,
		kp,
		&http.Client{Timeout: cfg.GatewayTimeout},
		transport.WithSigner(signer.NewDefaultBecknSignerWithOptions(&signer.SigningOptions{Format: format})),
		transport.WithMetrics(metrics),
		transport.WithLogger(logger.WithSubscriber(cfg.BapID)),
	)

	return server.New(cfg, gateway, logger, metrics).ListenAndServe(ctx, cfg.Addr())
}

// loadKeys loads the signing key and explains how to create one when it is
// missing or unreadable
func loadKeys(dir string) (*keys.KeyPair, error) {
	kp, err := keys.Load(dir)
	switch {
	case err == nil:
		return kp, nil
	case errors.Is(err, keys.ErrKeyNotFound):
		return nil, fmt.Errorf("%w (run: keygen generate -dir %s)", err, dir)
	case errors.Is(err, keys.ErrKeyFormat):
		return nil, fmt.Errorf("%w (regenerate with: keygen generate -dir %s -force)", err, dir)
	default:
		return nil, err
	}
}
