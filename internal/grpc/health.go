package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthv1 "google.golang.org/grpc/health/grpc_health_v1"
)

// GatewayService is the health-check name reported for the route guard's dependencies.
const GatewayService = "tutoring.gateway"

type HealthServer struct {
	*health.Server
}

// SetServing flips both the overall status and the gateway service status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthv1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthv1.HealthCheckResponse_SERVING
	}
	h.SetServingStatus("", status)
	h.SetServingStatus(GatewayService, status)
}

// NewServer serves only the standard health protocol; orchestrators probe it without credentials.
func NewServer() (*grpc.Server, *HealthServer) {
	server := grpc.NewServer()
	healthServer := &HealthServer{Server: health.NewServer()}
	healthServer.SetServing(false)
	healthv1.RegisterHealthServer(server, healthServer)
	return server, healthServer
}
