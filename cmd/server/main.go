package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/charlesng35/guestbook/internal/app"
	"github.com/charlesng35/guestbook/pkg/logger"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type options struct {
	configPath string
	envFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	default:
		fmt.Fprintf(os.Stderr, "guestbook: %v\n", err)
		os.Exit(1)
	}
}

func parseOptions(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("guestbook-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	fs.StringVar(&opts.configPath, "config", "", "Configuration directory or config.yaml path")
	fs.StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before configuration (optional)")
	return opts, fs.Parse(args)
}

func run(ctx context.Context, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(opts.configPath)
	if err != nil {
		return err
	}
	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return err
	}
	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Info("generated runtime secret", zap.String("key", key))
	}

	stack, err := bootstrapRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stack.Shutdown(context.Background(), log)

	return serve(ctx, &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           stack.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}, log)
}

// serve runs srv until ctx is cancelled or the listener fails, then drains
// in-flight requests.
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	listenErr := make(chan error, 1)
	go func() {
		log.Info("guestbook listening", zap.String("addr", srv.Addr))
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-listenErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	log.Info("guestbook stopped")
	return nil
}

// loadEnvFile exports variables from a dotenv file without overriding the
// real environment. A missing file is not an error.
func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// loadApplicationConfig accepts either a directory holding config.yaml or the
// file itself. An empty path searches the default locations.
func loadApplicationConfig(path string) (*app.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return app.LoadConfig()
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config path %q does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}
	return app.LoadConfig(path)
}
