package igrpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestRefreshServing(t *testing.T) {
	hs := NewHealthServer(&fakePinger{})

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, hs.Refresh(context.Background()))

	resp, err := hs.Health().Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRefreshNotServingWhenDatabaseDown(t *testing.T) {
	pinger := &fakePinger{err: errors.New("connection refused")}
	hs := NewHealthServer(pinger)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, hs.Refresh(context.Background()))

	resp, err := hs.Health().Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestRefreshRecovers(t *testing.T) {
	pinger := &fakePinger{err: errors.New("down")}
	hs := NewHealthServer(pinger)
	hs.Refresh(context.Background())

	pinger.err = nil
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, hs.Refresh(context.Background()))
}
