package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/rl1809/serial-registry/internal/adapter/handler"
	"github.com/rl1809/serial-registry/internal/app"
	"github.com/rl1809/serial-registry/internal/platform/config"
	"github.com/rl1809/serial-registry/internal/platform/logger"
	"github.com/rl1809/serial-registry/internal/platform/observability"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	shutdownTracing := observability.InitOTel(ctx, zl, observability.OtelConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	})

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize", "error", err)
	}

	// gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterSerialServiceServer(grpcServer, handler.NewGRPCHandler(a.Serials, a.Stats, zl))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		zl.Fatal("failed to listen", "addr", cfg.Server.GRPCAddr, "error", err)
	}

	go func() {
		zl.Info("gRPC server listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			zl.Error("gRPC server error", "error", err)
		}
	}()

	// HTTP server
	routerCfg := handler.RouterConfig{AllowOrigins: cfg.Server.AllowOrigins}
	if cfg.Tracing.Enabled {
		routerCfg.ServiceName = cfg.Tracing.ServiceName
	}
	router := handler.NewRouter(handler.NewHTTPHandler(a.Serials, a.Stats, zl), routerCfg)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	go func() {
		zl.Info("HTTP server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			zl.Error("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Warn("HTTP shutdown", "error", err)
	}
	zl.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	zl.Info("gRPC server stopped")

	if err := shutdownTracing(shutdownCtx); err != nil {
		zl.Warn("tracer shutdown", "error", err)
	}

	a.Close()
	zl.Info("connections closed")
}
