package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// HTTPService runs srv until Stop, shutting down gracefully within timeout.
//
// Precondition: srv.Addr must be set.
func HTTPService(srv *http.Server, timeout time.Duration, logger *zap.Logger) Service {
	return &FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", srv.Addr, err)
			}
			logger.Info("HTTP server listening", zap.String("addr", lis.Addr().String()))
			if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		StopFn: func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("HTTP shutdown incomplete", zap.Error(err))
			}
		},
	}
}

// GRPCService serves srv on addr until Stop.
func GRPCService(srv *grpc.Server, addr string, logger *zap.Logger) Service {
	return &FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
			return srv.Serve(lis)
		},
		StopFn: srv.GracefulStop,
	}
}

// TickerService calls fn every interval until Stop, then runs onStop.
// onStop may be nil.
//
// Precondition: interval must be positive.
func TickerService(interval time.Duration, fn func(ctx context.Context), onStop func()) Service {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	return &FuncService{
		StartFn: func() error {
			defer close(done)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					fn(ctx)
				}
			}
		},
		StopFn: func() {
			cancel()
			<-done
			if onStop != nil {
				onStop()
			}
		},
	}
}
