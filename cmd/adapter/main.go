package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	napv1 "github.com/nupi-ai/nupi/api/nap/v1"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/adapterinfo"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/backend"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/config"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/server"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/synth"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/telemetry"
)

// lazyTTSServer wraps a TextToSpeechServiceServer and allows deferred initialization.
// It returns Unavailable errors until the underlying server is set via setServer.
type lazyTTSServer struct {
	napv1.UnimplementedTextToSpeechServiceServer
	server atomic.Pointer[napv1.TextToSpeechServiceServer]
}

func (l *lazyTTSServer) setServer(srv napv1.TextToSpeechServiceServer) {
	l.server.Store(&srv)
}

func (l *lazyTTSServer) StreamSynthesis(req *napv1.StreamSynthesisRequest, stream napv1.TextToSpeechService_StreamSynthesisServer) error {
	srv := l.server.Load()
	if srv == nil {
		return status.Error(codes.Unavailable, "TTS service is initializing, please retry in a moment")
	}
	return (*srv).StreamSynthesis(req, stream)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting adapter",
		"adapter", adapterinfo.Info.Name,
		"adapter_slug", adapterinfo.Info.Slug,
		"adapter_version", adapterinfo.Version(),
		"listen_addr", cfg.ListenAddr,
		"engine", cfg.Engine,
		"voice_name", logStringPtrField(cfg.VoiceName),
		"speaking_rate", logFloatPtrField(cfg.SpeakingRate),
		"audio_pitch", logFloatPtrField(cfg.AudioPitch),
		"metrics_addr", cfg.MetricsAddr,
	)

	recorder := telemetry.NewRecorder(logger)

	// STEP 1: Bind port IMMEDIATELY (before initializing the engine)
	// This allows the manager's readiness check to succeed while the engine initializes.
	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to bind listener", "error", err)
		os.Exit(1)
	}
	defer lis.Close()
	logger.Info("listener bound, port ready", "addr", lis.Addr().String())

	// STEP 2: Setup gRPC server with lazy TTS service wrapper
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)

	serviceName := napv1.TextToSpeechService_ServiceDesc.ServiceName
	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	lazyService := &lazyTTSServer{}
	napv1.RegisterTextToSpeechServiceServer(grpcServer, lazyService)

	// STEP 3: Start gRPC server in background (port is already bound)
	serverErr := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serverErr <- err
		}
	}()
	logger.Info("gRPC server started (NOT_SERVING while initializing)")

	// STEP 4: Initialize speech engine
	eng, err := backend.New(cfg.Engine, cfg.VoicesFile, logger)
	if err != nil {
		logger.Error("failed to initialize speech engine", "error", err)
		os.Exit(1)
	}
	bridge := synth.NewBridge(eng, logger, recorder)
	logger.Info("speech engine initialized",
		"engine", cfg.Engine,
		"voices", len(bridge.VoiceList()),
		"default_voice", bridge.DefaultVoiceInfo().DisplayName,
	)

	// STEP 5: Start metrics exporter (if configured)
	var exporter *telemetry.Exporter
	if cfg.MetricsAddr != "" {
		exporter, err = startExporter(cfg.MetricsAddr, recorder, logger)
		if err != nil {
			logger.Warn("failed to start metrics exporter, continuing without", "error", err)
		}
	}

	// STEP 6: Activate the real TTS service now that the engine is ready
	realService := server.New(cfg, logger, bridge)
	lazyService.setServer(realService)

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_SERVING)
	logger.Info("adapter ready to serve requests")

	// STEP 7: Setup graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested, stopping gRPC server")
		healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			logger.Warn("graceful stop timed out, forcing stop")
			grpcServer.Stop()
		}

		if exporter != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := exporter.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics exporter shutdown failed", "error", err)
			}
		}
	}()

	// STEP 8: Wait for server to finish or error
	select {
	case err := <-serverErr:
		logger.Error("gRPC server terminated with error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		// Normal shutdown via signal
	}

	logger.Info("adapter stopped")
}

func startExporter(addr string, recorder *telemetry.Recorder, logger *slog.Logger) (*telemetry.Exporter, error) {
	exporter, err := telemetry.NewExporter(recorder)
	if err != nil {
		return nil, err
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind metrics listener: %w", err)
	}
	go func() {
		if err := exporter.Serve(lis); err != nil {
			logger.Error("metrics exporter terminated", "error", err)
		}
	}()
	logger.Info("metrics exporter listening", "addr", lis.Addr().String())
	return exporter, nil
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func logFloatPtrField(v *float64) any {
	if v == nil {
		return "default"
	}
	return *v
}

func logStringPtrField(v *string) any {
	if v == nil || *v == "" {
		return "default"
	}
	return *v
}
