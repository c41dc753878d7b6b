package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashokshau/qrcanvas"
	"github.com/ashokshau/qrcanvas/config"
	"github.com/ashokshau/qrcanvas/landing"
)

var version = "v0.1.0"

func main() {
	root := &cobra.Command{
		Use:          "qrcanvas",
		Short:        "Render the landing page download QR code",
		SilenceUsage: true,
	}

	var configPath string
	var envFiles []string
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Optional .env files to load")

	// --- render command ------------------------------------------------------
	var out string
	var asDataURI bool
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render the QR code once and write it as PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.OutOrStdout(), configPath, envFiles, out, asDataURI)
		},
	}
	renderCmd.Flags().StringVarP(&out, "output", "o", "qr.png", "Output PNG file")
	renderCmd.Flags().BoolVar(&asDataURI, "data-uri", false, "Print a data URI instead of writing a file")
	root.AddCommand(renderCmd)

	// --- serve command -------------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the landing host page with the mounted QR code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, envFiles)
		},
	})

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qrcanvas %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func setup(configPath string, envFiles []string) (*config.Config, *qrcanvas.Renderer, *slog.Logger, error) {
	cfg, err := config.Load(configPath, envFiles...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	opts, err := cfg.RendererOptions()
	if err != nil {
		return nil, nil, nil, err
	}
	r := qrcanvas.NewRenderer(append(opts, qrcanvas.WithLogger(log))...)
	return cfg, r, log, nil
}

// runRender renders once. A fallback surface is still written; the failure is only logged.
func runRender(stdout io.Writer, configPath string, envFiles []string, out string, asDataURI bool) error {
	cfg, r, _, err := setup(configPath, envFiles)
	if err != nil {
		return err
	}

	img, _ := r.Render(cfg.Payload, cfg.Level, cfg.CellSize, cfg.Margin)

	if asDataURI {
		uri, err := img.DataURI()
		if err != nil {
			return fmt.Errorf("encode data uri: %w", err)
		}
		fmt.Fprintln(stdout, uri)
		return nil
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	if err := img.WritePNG(f); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func runServe(configPath string, envFiles []string) error {
	cfg, r, log, err := setup(configPath, envFiles)
	if err != nil {
		return err
	}

	s := landing.NewServer(r, landing.Options{
		Payload:  cfg.Payload,
		Level:    cfg.Level,
		CellSize: cfg.CellSize,
		Margin:   cfg.Margin,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      landing.NewRouter(s),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-quit:
	}

	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}
	log.Info("goodbye")
	return nil
}
