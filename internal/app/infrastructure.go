package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/config"
	"github.com/artasyaskar/puzzleverse-mern/pkg/database"
	"github.com/artasyaskar/puzzleverse-mern/pkg/observability"
)

// Infrastructure is shared by the probe runner and the sandbox: one logger
// and one metrics pipeline per process, plus Redis when the sandbox is
// configured to share login lockouts.
type Infrastructure interface {
	Logger() *zap.Logger
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider
	Registry() *prometheus.Registry
	// Redis is nil unless SANDBOX_REDIS_ADDR is set.
	Redis() *database.Redis

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
	registry       *prometheus.Registry
	redis          *database.Redis
}

var _ Infrastructure = &infrastructure{}

func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	infra, err := newInfrastructure(logger)
	if err != nil {
		return nil, err
	}

	if cfg.Sandbox.RedisAddr != "" {
		redis, err := database.NewRedis(ctx, cfg.Sandbox.RedisAddr, cfg.Sandbox.RedisPassword, cfg.Sandbox.RedisDB)
		if err != nil {
			_ = infra.Shutdown(ctx)
			return nil, err
		}
		infra.redis = redis
		logger.Info("Connected to Redis", zap.String("addr", cfg.Sandbox.RedisAddr))
	}

	return infra, nil
}

// NewTestInfrastructure uses the given logger, typically zap.NewNop or zaptest.
func NewTestInfrastructure(logger *zap.Logger) (Infrastructure, error) {
	return newInfrastructure(logger)
}

func newInfrastructure(logger *zap.Logger) (*infrastructure, error) {
	telemetry, err := observability.InitTelemetry(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	return &infrastructure{
		logger:         logger,
		metricsHandler: telemetry.Handler,
		meterProvider:  telemetry.MeterProvider,
		registry:       telemetry.Registry,
	}, nil
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *infrastructure) Registry() *prometheus.Registry {
	return i.registry
}

func (i *infrastructure) Redis() *database.Redis {
	return i.redis
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	var errs []error
	if i.redis != nil {
		errs = append(errs, i.redis.Close())
	}
	errs = append(errs, observability.Shutdown(ctx, i.meterProvider, i.logger))
	return errors.Join(errs...)
}
