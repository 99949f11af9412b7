package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/tournevent/shipscan/internal/graphql"
	"github.com/tournevent/shipscan/internal/server"
	"github.com/tournevent/shipscan/internal/telemetry"
	"github.com/tournevent/shipscan/pkg/shipper"
	"github.com/tournevent/shipscan/pkg/shipper/ups"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "shipscan",
	Short:   "Warehouse shipping bridge between Business Central and UPS",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GraphQL server",
	RunE:  runServe,
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Print the UPS service a destination and shipment method resolve to",
	Args:  cobra.NoArgs,
	RunE:  runService,
}

func init() {
	serviceCmd.Flags().String("state", "", "destination state or county code")
	serviceCmd.Flags().String("country", "", "destination country code, empty for domestic")
	serviceCmd.Flags().String("method", "", "ERP shipment method code")

	rootCmd.AddCommand(serveCmd, serviceCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	tokens := initTokenCache(cfg, logger, metrics)
	store := initERP(cfg, tokens, logger, tracer)
	registry := initShipperRegistry(cfg, tokens, logger, tracer)

	publisher, err := initPublisher(cfg)
	if err != nil {
		logger.Warn("Label events disabled", zap.Error(err))
	}
	defer publisher.Close()

	svc := initWorkflow(store, registry, publisher, logger)

	// Tokens are fetched lazily; a failed warm-up only delays the first scan.
	if err := svc.Warm(ctx); err != nil {
		logger.Warn("Token warm-up failed", zap.Error(err))
	}

	logger.Info("Starting shipscan bridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Strings("carriers", registry.Names()),
	)

	resolver := graphql.NewResolver(svc, registry, logger, metrics)
	srv := server.New(server.Config{Port: cfg.Port}, resolver, reg, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runService(cmd *cobra.Command, args []string) error {
	state, _ := cmd.Flags().GetString("state")
	country, _ := cmd.Flags().GetString("country")
	method, _ := cmd.Flags().GetString("method")

	svc := ups.ResolveService(shipper.Destination{StateOrCounty: state, Country: country}, method)
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", svc.Code, svc.Description)
	return err
}
