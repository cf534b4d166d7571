package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"keyword-radar/internal/config"
	"keyword-radar/internal/handler"
	"keyword-radar/internal/service"
	"keyword-radar/pkg/logger"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", os.Getenv("KEYWORD_RADAR_CONFIG"), "Configuration file path (env: KEYWORD_RADAR_CONFIG)")
	flag.BoolVar(&app.debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func (app *Application) Run() error {
	cfg, err := config.NewManager().Load(app.configPath)
	if err != nil {
		return err
	}

	logConfig := logger.Config(cfg.Logger)
	if app.debug {
		logConfig.Level = "debug"
	}
	logger.SetLogger(logger.New(logConfig))
	log := logger.WithComponent("server")

	analyzer, err := service.NewAnalyzerBuilder(cfg).Build()
	if err != nil {
		return err
	}
	defer analyzer.Close()

	server := handler.NewApp(handler.NewController(analyzer), handler.ControllerConfig{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr()).Info("Server started")
		errChan <- server.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutdown signal received, shutting down gracefully")
	if err := server.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
