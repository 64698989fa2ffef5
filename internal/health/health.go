// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package health exposes the standard gRPC health service for the bridge.
// ServiceBridge is SERVING while the JDWP listener accepts connections and
// ServiceSession is SERVING while at least one debugger session is active.
package health

import (
	"errors"
	"net"
	"sync"

	"jdwpgdb/cli/internal/logging"

	"github.com/pterm/pterm"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service names reported through grpc.health.v1.Health.
const (
	ServiceBridge  = "jdwpgdb.Bridge"
	ServiceSession = "jdwpgdb.Session"
)

// Server tracks bridge and session liveness. It implements
// bridge.SessionObserver.
type Server struct {
	hs  *grpchealth.Server
	gs  *grpc.Server
	log *pterm.Logger

	mu       sync.Mutex
	sessions map[string]struct{}
}

// New returns a Server with both services NOT_SERVING.
func New(log *pterm.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		hs:       grpchealth.NewServer(),
		gs:       grpc.NewServer(),
		log:      log,
		sessions: make(map[string]struct{}),
	}
	s.hs.SetServingStatus(ServiceBridge, healthpb.HealthCheckResponse_NOT_SERVING)
	s.hs.SetServingStatus(ServiceSession, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.gs, s.hs)
	return s
}

// SetAccepting records whether the JDWP listener is accepting.
func (s *Server) SetAccepting(ok bool) {
	s.hs.SetServingStatus(ServiceBridge, status(ok))
}

func (s *Server) SessionStarted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = struct{}{}
	s.hs.SetServingStatus(ServiceSession, status(true))
}

func (s *Server) SessionEnded(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	s.hs.SetServingStatus(ServiceSession, status(len(s.sessions) > 0))
}

// Sessions returns the number of active sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Serve answers health checks on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("health endpoint listening", s.log.Args("addr", lis.Addr().String()))
	if err := s.gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop reports every service NOT_SERVING, then stops the gRPC server once
// in-flight checks finish.
func (s *Server) Stop() {
	s.hs.Shutdown()
	s.gs.GracefulStop()
}

func status(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
