package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"julesmcp/config"
	"julesmcp/julesapi"
	loggerv2 "julesmcp/logger/v2"
	"julesmcp/mcpserver"
	"julesmcp/tools"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Jules tools over streamable HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().Int("port", config.DefaultPort, "TCP port to listen on (env PORT)")
	cmd.Flags().String("endpoint", config.DefaultEndpointPath, "HTTP path of the MCP endpoint")
	cmd.Flags().String("base-url", julesapi.DefaultBaseURL, "Jules API base URL (env JULES_API_BASE_URL)")
	cmd.Flags().String("result-format", string(tools.ResultStructured), "tool result format (structured, text)")
	cmd.Flags().Bool("stateless", false, "disable MCP session tracking")
	cmd.Flags().Duration("upstream-timeout", 0, "timeout for each Jules API request (0 = none)")

	for _, name := range []string{"port", "endpoint", "base-url", "result-format", "stateless", "upstream-timeout"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, err := loggerv2.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	format, err := tools.ParseResultFormat(cfg.ResultFormat)
	if err != nil {
		return err
	}

	factory := julesapi.NewFactory(cfg.BaseURL, cfg.UpstreamTimeout, "julesmcp/"+version)
	registry := tools.NewRegistry(tools.FactoryFrom(factory),
		tools.WithLogger(logger),
		tools.WithResultFormat(format),
	)

	server, err := mcpserver.NewServer(mcpserver.Config{
		Name:         config.DefaultServerName,
		Version:      version,
		Addr:         cfg.Addr(),
		EndpointPath: cfg.EndpointPath,
		Stateless:    cfg.Stateless,
		Registry:     registry,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("julesmcp starting",
			loggerv2.String("version", version),
			loggerv2.Int("port", cfg.Port),
			loggerv2.String("endpoint", cfg.EndpointPath),
			loggerv2.String("base_url", cfg.BaseURL),
			loggerv2.Int("tools", len(registry.Descriptors())),
		)
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
