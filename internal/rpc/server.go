package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownGrace = 2 * time.Second

// Server serves the gRPC service and the HTTP/1 surface on one listener.
type Server struct {
	svc  *Service
	grpc *grpc.Server
	http *http.Server
}

// NewServer builds a server for svc.
func NewServer(svc *Service) *Server {
	g := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	Register(g, svc)
	return &Server{
		svc:  svc,
		grpc: g,
		http: &http.Server{Handler: HTTPHandler(svc), ReadHeaderTimeout: 5 * time.Second},
	}
}

// Serve splits ln with cmux: HTTP/2 requests whose content-type starts with
// application/grpc go to gRPC, HTTP/1 requests go to the JSON handler. It
// returns when ctx is cancelled or a server fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldPrefixSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.HTTP1Fast())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.grpc.Serve(grpcL) })
	g.Go(func() error {
		if err := s.http.Serve(httpL); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return m.Serve() })
	g.Go(func() error {
		<-gctx.Done()
		s.stop()
		m.Close()
		return nil
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) stop() {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		// Event streams stay open until clients leave.
		s.grpc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.Debug("http shutdown", "err", err)
	}
}
