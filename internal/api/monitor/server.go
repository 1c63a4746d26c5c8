package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GriffinCanCode/AgentOS/executive/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel"
)

// ServiceName is the gRPC health service name reported for the kernel.
const ServiceName = "executive.Kernel"

const shutdownTimeout = 5 * time.Second

// Kernel is the view of the executive the monitor needs.
type Kernel interface {
	Exclusive(ctx context.Context, fn func(ctx context.Context, s kernel.Session)) error
	Console() *hal.Console
	LiveHandles() int
	Ready() <-chan struct{}
}

// Raiser asserts hardware interrupt lines.
type Raiser interface {
	Raise(line uint8)
}

// Server serves the monitor HTTP API and gRPC health service.
type Server struct {
	kernel      Kernel
	raiser      Raiser
	metrics     *monitoring.Metrics
	tracer      *tracing.Tracer
	logger      *logging.Logger
	development bool
	cfg         config.MonitorConfig

	router *gin.Engine
	health *health.Server
	grpc   *grpc.Server
	http   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithRaiser enables POST /irq/:line.
func WithRaiser(r Raiser) Option {
	return func(s *Server) { s.raiser = r }
}

// WithMetrics enables /metrics and request instrumentation.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithTracer traces monitor requests and enables /traces.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDevelopment keeps gin in debug mode.
func WithDevelopment(dev bool) Option {
	return func(s *Server) { s.development = dev }
}

// NewServer builds the router and health service.
func NewServer(cfg config.MonitorConfig, k Kernel, opts ...Option) *Server {
	s := &Server{
		kernel: k,
		logger: logging.NewNop(),
		cfg:    cfg,
		health: health.NewServer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("monitor")

	if !s.development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if s.tracer != nil {
		router.Use(tracing.HTTPMiddleware(s.tracer))
	}
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	router.GET("/health", s.Health)
	router.GET("/session", s.Session)
	router.GET("/console", s.ConsoleLines)
	router.GET("/console/stream", s.ConsoleStream)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}
	if s.tracer != nil {
		router.GET("/traces", s.Traces)
	}
	if s.raiser != nil {
		limit := middleware.RateLimitConfig{RequestsPerSecond: cfg.IRQRate, Burst: burst(cfg.IRQRate)}
		router.POST("/irq/:line", middleware.GlobalRateLimit(limit), s.RaiseIRQ)
	}
	s.router = router

	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	var serverOpts []grpc.ServerOption
	if s.tracer != nil {
		serverOpts = append(serverOpts,
			grpc.UnaryInterceptor(tracing.GRPCUnaryInterceptor(s.tracer)),
			grpc.StreamInterceptor(tracing.GRPCStreamInterceptor(s.tracer)),
		)
	}
	s.grpc = grpc.NewServer(serverOpts...)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HealthServer returns the gRPC health service.
func (s *Server) HealthServer() *health.Server {
	return s.health
}

// WatchReady flips the health status to SERVING once the kernel has
// booted. It returns when that happens or ctx is done.
func (s *Server) WatchReady(ctx context.Context) {
	select {
	case <-s.kernel.Ready():
		s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		s.logger.Info("kernel ready; health serving")
	case <-ctx.Done():
	}
}

// Run listens on the configured HTTP and gRPC addresses until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("monitor listen %s: %w", s.cfg.Addr, err)
	}
	grpcLis, err := net.Listen("tcp", s.cfg.GRPCAddr)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("health listen %s: %w", s.cfg.GRPCAddr, err)
	}
	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve runs both servers on the given listeners until ctx is done.
func (s *Server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go s.WatchReady(ctx)

	errs := make(chan error, 2)
	go func() {
		s.logger.Info("Starting monitor HTTP server", zap.String("addr", httpLis.Addr().String()))
		if err := s.http.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("monitor http: %w", err)
		}
	}()
	go func() {
		s.logger.Info("Starting health gRPC server", zap.String("addr", grpcLis.Addr().String()))
		if err := s.grpc.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errs <- fmt.Errorf("health grpc: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errs:
	}

	s.shutdown()
	return runErr
}

func (s *Server) shutdown() {
	s.logger.Info("Shutting down monitor...")
	s.health.Shutdown()
	s.grpc.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down monitor HTTP server", zap.Error(err))
	}
}

func burst(rps float64) int {
	if rps < 1 {
		return 1
	}
	return int(rps)
}
