package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/display"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/executive/internal/programs"
)

type fakeRaiser struct {
	mu    sync.Mutex
	lines []uint8
}

func (f *fakeRaiser) Raise(line uint8) {
	f.mu.Lock()
	f.lines = append(f.lines, line)
	f.mu.Unlock()
}

type fixture struct {
	tracer  *tracing.Tracer
	kernel  *kernel.Kernel
	sim     *hal.Sim
	raiser  *fakeRaiser
	metrics *monitoring.Metrics
	server  *Server
}

func newFixture(t *testing.T, irqRate float64) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := session.New(display.New(640, 480))
	require.NoError(t, s.Insert(0, programs.NewFileManager()))
	s.Focus(0)

	sim := hal.NewSim()
	t.Cleanup(sim.Close)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("monitor-test", nil)
	t.Cleanup(tracer.Close)
	k, err := kernel.New(sim, kernel.WithSession(s), kernel.WithMetrics(metrics), kernel.WithTracer(tracer))
	require.NoError(t, err)

	cfg := config.Default().Monitor
	cfg.IRQRate = irqRate
	raiser := &fakeRaiser{}
	return &fixture{
		tracer:  tracer,
		kernel:  k,
		sim:     sim,
		raiser:  raiser,
		metrics: metrics,
		server:  NewServer(cfg, k, WithRaiser(raiser), WithMetrics(metrics), WithTracer(tracer), WithDevelopment(true)),
	}
}

// boot runs the boot vector until the test ends.
func (f *fixture) boot(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.sim.Deliver(ctx, 0xFF)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	<-f.kernel.Ready()
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	f := newFixture(t, 10)

	w := f.do("GET", "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["booted"])

	f.boot(t)
	w = f.do("GET", "/health")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["booted"])
}

func TestSessionSnapshot(t *testing.T) {
	f := newFixture(t, 10)
	f.boot(t)

	w := f.do("GET", "/session")
	require.Equal(t, http.StatusOK, w.Code)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "file_manager", snap.Items[0].Name)
	assert.Equal(t, 0, snap.Focus)
	assert.Nil(t, snap.Background)
}

func TestSessionBeforeBoot(t *testing.T) {
	sim := hal.NewSim()
	t.Cleanup(sim.Close)
	k, err := kernel.New(sim, kernel.WithBooter(func(context.Context, *kernel.Kernel) (kernel.Session, error) {
		return nil, errors.New("never booted")
	}))
	require.NoError(t, err)
	server := NewServer(config.Default().Monitor, k, WithDevelopment(true))

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/session", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/irq/1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "no raiser, no route")
}

func TestConsoleLines(t *testing.T) {
	f := newFixture(t, 10)
	f.kernel.Trap(context.Background(), 0x0E)

	w := f.do("GET", "/console")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Lines []string `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Page fault"}, body.Lines)
}

func TestRaiseIRQ(t *testing.T) {
	f := newFixture(t, 0.001)

	w := f.do("POST", "/irq/12")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []uint8{12}, f.raiser.lines)

	w = f.do("POST", "/irq/1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "one token at this rate")
	assert.Len(t, f.raiser.lines, 1)
}

func TestRaiseIRQValidatesLine(t *testing.T) {
	f := newFixture(t, 100)
	for _, line := range []string{"16", "-1", "abc"} {
		w := f.do("POST", "/irq/"+line)
		assert.Equal(t, http.StatusBadRequest, w.Code, line)
	}
	assert.Empty(t, f.raiser.lines)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, 10)
	f.kernel.Trap(context.Background(), 0x21)
	f.do("GET", "/health")

	w := f.do("GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kernel_traps_total")
	assert.Contains(t, w.Body.String(), "kernel_irqs_total")
}

func TestConsoleStream(t *testing.T) {
	f := newFixture(t, 10)
	f.kernel.Console().Printf("before connect")

	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/console/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "before connect", string(msg), "history replayed first")

	// The subscription is registered before the replay, so this arrives.
	f.kernel.Trap(context.Background(), 0x00)
	for {
		_, msg, err = conn.ReadMessage()
		require.NoError(t, err)
		if string(msg) != "before connect" {
			break
		}
	}
	assert.Equal(t, "Divide by zero exception", string(msg))
}

func TestHealthService(t *testing.T) {
	f := newFixture(t, 10)

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- f.server.Serve(ctx, httpLis, grpcLis) }()

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
		defer rcancel()
		resp, err := client.Check(rctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.GetStatus()
	}

	assert.Eventually(t, func() bool {
		return check() == healthpb.HealthCheckResponse_NOT_SERVING
	}, 5*time.Second, 20*time.Millisecond)

	f.boot(t)
	assert.Eventually(t, func() bool {
		return check() == healthpb.HealthCheckResponse_SERVING
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get("http://" + httpLis.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("monitor did not shut down")
	}
}

func TestTraces(t *testing.T) {
	f := newFixture(t, 10)
	f.do("GET", "/health")

	var body struct {
		Spans []tracing.Span `json:"spans"`
	}
	require.Eventually(t, func() bool {
		w := f.do("GET", "/traces?limit=5")
		if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &body) != nil {
			return false
		}
		for _, span := range body.Spans {
			if span.Name == "GET /health" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}
