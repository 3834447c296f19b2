package health

import (
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ttlpool/ttlpool/pkg/types"
)

// CollectorService is the health service name reporting the periodic loop.
const CollectorService = "ttlpool.Collector"

// Server wraps grpc's health server.
type Server struct {
	hs *health.Server
}

// New returns a Server with the collector reported as NOT_SERVING.
func New() *Server {
	hs := health.NewServer()
	hs.SetServingStatus(CollectorService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{hs: hs}
}

// Register adds the health service to a gRPC server.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(r, s.hs)
}

// HealthServer returns the underlying grpc_health_v1 implementation.
func (s *Server) HealthServer() healthpb.HealthServer { return s.hs }

// Shutdown marks every service NOT_SERVING; later updates are ignored.
func (s *Server) Shutdown() {
	s.hs.Shutdown()
}

// CollectorStarted marks CollectorService SERVING.
func (s *Server) CollectorStarted(time.Duration) {
	s.hs.SetServingStatus(CollectorService, healthpb.HealthCheckResponse_SERVING)
	slog.Debug("health: collector serving")
}

// CollectorStopped marks CollectorService NOT_SERVING.
func (s *Server) CollectorStopped() {
	s.hs.SetServingStatus(CollectorService, healthpb.HealthCheckResponse_NOT_SERVING)
	slog.Debug("health: collector not serving")
}

// SweepStarted and the entry notifications below do not affect health.
func (s *Server) SweepStarted(types.SweepKind)         {}
func (s *Server) EntryInserted(string, time.Duration)  {}
func (s *Server) EntryDeleted(string)                  {}
func (s *Server) EntryRemoved(string, types.SweepKind) {}
