package grpc

import (
	"context"
	"testing"

	healthv1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthServerSetServing(t *testing.T) {
	_, hs := NewServer()
	check := func() healthv1.HealthCheckResponse_ServingStatus {
		resp, err := hs.Check(context.Background(), &healthv1.HealthCheckRequest{Service: GatewayService})
		if err != nil {
			t.Fatalf("check error: %v", err)
		}
		return resp.GetStatus()
	}
	if got := check(); got != healthv1.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING before probe, got %s", got)
	}
	hs.SetServing(true)
	if got := check(); got != healthv1.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", got)
	}
}
