package igrpc

import (
	"context"
	"errors"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"community-service/internal/logger"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "community.v1.CommunityService"

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer reports SERVING while the database answers pings.
type HealthServer struct {
	health *health.Server
	db     Pinger
}

func NewHealthServer(db Pinger) *HealthServer {
	return &HealthServer{health: health.NewServer(), db: db}
}

func (h *HealthServer) Health() *health.Server { return h.health }

// Refresh pings the database once and publishes the resulting status.
func (h *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.db.PingContext(ctx); err != nil {
		logger.Warn("database health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
	return status
}

func (h *HealthServer) run(ctx context.Context, interval time.Duration) {
	h.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

// StartGRPCServer serves grpc.health.v1 on addr until ctx is cancelled.
func StartGRPCServer(ctx context.Context, addr string, db Pinger, interval time.Duration) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	hs := NewHealthServer(db)
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(srv, hs.Health())

	go hs.run(ctx, interval)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	return srv, nil
}
