package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/usecase"
)

const (
	ComponentDatabase = "database"
	ComponentExternal = "external_api"
)

// Checker probes a single dependency.
type Checker interface {
	Check(ctx context.Context) domain.ComponentHealth
}

// BasicReport is the liveness payload.
type BasicReport struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// DetailedReport aggregates every probe.
type DetailedReport struct {
	Status     string                            `json:"status"`
	Timestamp  string                            `json:"timestamp"`
	Components map[string]domain.ComponentHealth `json:"components"`
}

type UseCase struct {
	database Checker
	external usecase.ExternalProbe
	extras   map[string]Checker
	version  string
	now      func() time.Time
	logger   *zap.Logger
}

// New wires the health use case. Extra checkers are reported but never change the overall status.
func New(database Checker, external usecase.ExternalProbe, version string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		database: database,
		external: external,
		extras:   make(map[string]Checker),
		version:  version,
		now:      time.Now,
		logger:   logger,
	}
}

// WithChecker registers an informational component.
func (uc *UseCase) WithChecker(name string, c Checker) *UseCase {
	if c != nil {
		uc.extras[name] = c
	}
	return uc
}

func (uc *UseCase) Basic() BasicReport {
	return BasicReport{
		Status:  domain.HealthHealthy,
		Message: "API is running",
		Version: uc.version,
	}
}

// Detailed runs all probes concurrently. The service is unhealthy when the
// database is down, degraded when the external API is not active, and
// healthy otherwise.
func (uc *UseCase) Detailed(ctx context.Context) DetailedReport {
	var (
		mu         sync.Mutex
		components = make(map[string]domain.ComponentHealth, 2+len(uc.extras))
	)
	record := func(name string, h domain.ComponentHealth) {
		mu.Lock()
		components[name] = h
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		record(ComponentDatabase, uc.database.Check(gctx))
		return nil
	})
	g.Go(func() error {
		record(ComponentExternal, uc.external.Health(gctx))
		return nil
	})
	for name, c := range uc.extras {
		g.Go(func() error {
			record(name, c.Check(gctx))
			return nil
		})
	}
	_ = g.Wait()

	status := domain.HealthHealthy
	switch {
	case components[ComponentDatabase].Status != domain.HealthHealthy:
		status = domain.HealthUnhealthy
	case components[ComponentExternal].Status != domain.ExternalActive:
		status = domain.HealthDegraded
	}
	if status != domain.HealthHealthy {
		uc.logger.Warn("detailed health check not healthy", zap.String("status", status))
	}

	return DetailedReport{
		Status:     status,
		Timestamp:  uc.now().UTC().Format(time.RFC3339),
		Components: components,
	}
}
