// Command revforecast serves the revenue forecasting upload page and JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/revforecast/config"
	"github.com/aouyang1/revforecast/pipeline"
	"github.com/aouyang1/revforecast/server"
	"github.com/pkg/profile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func startProfile(mode string) (func(), error) {
	var p func(*profile.Profile)
	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		p = profile.CPUProfile
	case "mem":
		p = profile.MemProfile
	default:
		return nil, fmt.Errorf("unknown profile mode %q, expected cpu or mem", mode)
	}
	stopper := profile.Start(p, profile.ProfilePath("."), profile.NoShutdownHook)
	return stopper.Stop, nil
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	envFile := flag.String("env", ".env", "path to an optional dotenv file")
	profileMode := flag.String("profile", "", "write a cpu or mem profile to the working directory")
	flag.Parse()

	stopProfile, err := startProfile(*profileMode)
	if err != nil {
		return err
	}
	defer stopProfile()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	halted := false
	if err := cfg.CheckSecrets(); err != nil {
		if !errors.Is(err, config.ErrMissingSecret) {
			return err
		}
		logger.Error("starting in halted mode", "error", err)
		halted = true
	}

	p := pipeline.New(
		pipeline.NewForecasterModel(cfg.Model.ForecasterOptions()),
		pipeline.WithFitTimeout(cfg.Model.FitTimeout),
		pipeline.WithLogger(logger),
	)
	h, err := server.NewHandler(p, server.NewSettings(cfg), logger)
	if err != nil {
		return err
	}
	srv := server.New(cfg.Server, h, halted, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed, %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown, %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}
