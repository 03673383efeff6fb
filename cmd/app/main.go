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
	"time"

	"github.com/gin-gonic/gin"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jhubafrica/points-service/config"
	"github.com/jhubafrica/points-service/internal/app"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	host, _ := os.Hostname()
	appLog := logger.NewRollbarLogger(log.New(os.Stdout, "", log.LstdFlags), logger.Options{
		Token:   cfg.RollbarToken,
		Env:     cfg.AppEnv,
		Host:    host,
		Version: version,
	})
	defer appLog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := app.New(ctx, cfg, appLog)
	if err != nil {
		appLog.Error("failed to start", err)
		appLog.Flush()
		log.Fatalf("Failed to start: %v", err)
	}

	queueCtx, cancelQueue := context.WithCancel(context.Background())
	defer cancelQueue()
	a.Queue.Start(queueCtx)

	srv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           a.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Points Service HTTP is running on %s...", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	grpcServer, healthServer := a.GRPCServer()
	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		log.Printf("Points Service gRPC is running on %s...", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	// === SHUTDOWN ===
	<-ctx.Done()
	log.Println("Shutting down server...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("http shutdown", err)
	}
	grpcServer.GracefulStop()

	// Let in-flight corrections finish before the stores go away.
	if err := a.Queue.Stop(); err != nil {
		appLog.Warn("correction queue stop", err)
	}
	a.Close(shutdownCtx)
}
