package acceptance

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/artasyaskar/puzzleverse-mern/internal/apiclient"
	"github.com/artasyaskar/puzzleverse-mern/internal/app"
	"github.com/artasyaskar/puzzleverse-mern/internal/config"
	"github.com/artasyaskar/puzzleverse-mern/internal/probe"
	"github.com/artasyaskar/puzzleverse-mern/internal/readiness"
)

// With PROBE_LIVE=1 the suites run against BACKEND_BASE_URL and BASE_URL
// from the environment. Otherwise an in-process sandbox serves both.
const liveEnv = "PROBE_LIVE"

type Suite struct {
	suite.Suite
	Config  *config.Config
	Runner  *probe.Runner
	Backend *apiclient.Client
	Gateway *apiclient.Client
	cancel  context.CancelFunc
}

func TestSuite(t *testing.T) {
	suite.Run(t, new(Suite))
}

func (s *Suite) SetupSuite() {
	logger := zap.NewNop()

	if os.Getenv(liveEnv) == "1" {
		cfg, err := config.Load(context.Background())
		if err != nil {
			s.T().Fatalf("Failed to load configuration: %v", err)
		}
		s.Config = cfg
	} else {
		baseURL, cancel, err := s.startSandbox(logger)
		if err != nil {
			s.T().Fatalf("Failed to start sandbox: %v", err)
		}
		s.cancel = cancel
		s.Config.Backend.BaseURL = baseURL
		s.Config.Gateway.BaseURL = baseURL
	}

	poller := readiness.NewPoller(readiness.Options{
		Timeout:        s.Config.Readiness.Timeout.Duration,
		Interval:       s.Config.Readiness.Interval.Duration,
		RequestTimeout: s.Config.Readiness.RequestTimeout.Duration,
		HealthPath:     s.Config.Readiness.HealthPath,
	}, logger)

	s.Runner = probe.NewRunner(probe.DefaultRegistry(), probe.Options{
		Targets: map[probe.Target]string{
			probe.TargetBackend: s.Config.Backend.BaseURL,
			probe.TargetGateway: s.Config.Gateway.BaseURL,
		},
		HTTPTimeout:   s.Config.HTTP.Timeout.Duration,
		ExportTimeout: s.Config.HTTP.ExportTimeout.Duration,
		Parallelism:   1,
	}, poller, logger)

	s.Backend = apiclient.New(s.Config.Backend.BaseURL, s.Config.HTTP.Timeout.Duration)
	s.Gateway = apiclient.New(s.Config.Gateway.BaseURL, s.Config.HTTP.Timeout.Duration)

	if err := poller.Wait(context.Background(), s.Config.Backend.BaseURL); err != nil {
		s.T().Fatalf("Backend not ready: %v", err)
	}
}

func (s *Suite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
		time.Sleep(100 * time.Millisecond)
	}
}

func (s *Suite) startSandbox(logger *zap.Logger) (string, context.CancelFunc, error) {
	gin.SetMode(gin.TestMode)

	cfg := s.createTestConfig()

	infra, err := app.NewTestInfrastructure(logger)
	if err != nil {
		return "", nil, fmt.Errorf("failed to initialize test infrastructure: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create listener: %w", err)
	}
	cfg.Sandbox.Addr = listener.Addr().String()
	listener.Close()

	s.Config = cfg
	application := app.NewApp(infra, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	go func() {
		if err := application.Run(ctx, func(addr string) { ready <- addr }); err != nil {
			logger.Error("Sandbox failed to run", zap.Error(err))
		}
	}()

	select {
	case addr := <-ready:
		return "http://" + addr, cancel, nil
	case <-time.After(5 * time.Second):
		cancel()
		return "", nil, fmt.Errorf("sandbox did not start listening on %s", cfg.Sandbox.Addr)
	}
}

func (s *Suite) createTestConfig() *config.Config {
	return &config.Config{
		Readiness: config.ReadinessConfig{
			Timeout:        config.Duration{Duration: 5 * time.Second},
			Interval:       config.Duration{Duration: 50 * time.Millisecond},
			RequestTimeout: config.Duration{Duration: time.Second},
			HealthPath:     readiness.DefaultHealthPath,
		},
		HTTP: config.HTTPConfig{
			Timeout:       config.Duration{Duration: 5 * time.Second},
			ExportTimeout: config.Duration{Duration: 10 * time.Second},
		},
		Runner: config.RunnerConfig{Parallelism: 1},
		Sandbox: config.SandboxConfig{
			JWTSecret:       "test-secret-key-that-is-at-least-32-characters-long",
			AccessTokenTTL:  config.Duration{Duration: 15 * time.Minute},
			RefreshTokenTTL: config.Duration{Duration: 7 * 24 * time.Hour},
			LoginWindow:     config.Duration{Duration: time.Minute},
			LoginMaxFails:   5,
			BCryptCost:      bcrypt.MinCost,
		},
		Env: "test",
	}
}

// runSuite executes one probe suite and reports every failing check.
func (s *Suite) runSuite(id string) {
	report, err := s.Runner.Run(context.Background(), id)
	s.Require().NoError(err)

	result, ok := report.Suite(id)
	s.Require().True(ok, "suite %s missing from report", id)
	s.Require().NotEmpty(result.Checks)

	for _, c := range result.Checks {
		s.Truef(c.Passed, "%s/%s failed:\n  %s", id, c.Name, strings.Join(c.Failures, "\n  "))
	}
}
