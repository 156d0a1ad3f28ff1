package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   ShutdownFunc
}

// Manager runs long-lived components, waits for a stop condition and then
// closes registered resources in reverse order.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []hook

	stopOnce sync.Once
	stopCh   chan struct{}
	errMu    sync.Mutex
	runErr   error
}

// New creates a lifecycle manager with the desired shutdown timeout.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Register adds a shutdown hook. Hooks are executed in reverse order.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// Go runs a blocking component. When it returns, the manager stops.
func (m *Manager) Go(name string, run func() error) {
	go func() {
		err := run()
		if err != nil {
			m.logger.Error("component failed", zap.String("component", name), zap.Error(err))
			m.errMu.Lock()
			m.runErr = errors.Join(m.runErr, err)
			m.errMu.Unlock()
		} else {
			m.logger.Info("component exited", zap.String("component", name))
		}
		m.Stop()
	}()
}

// Stop requests shutdown. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Wait blocks until SIGINT/SIGTERM, Stop, a component exit, or ctx cancellation,
// then runs Shutdown. It returns the component and shutdown errors joined.
func (m *Manager) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case <-m.stopCh:
	case <-ctx.Done():
	}
	m.Stop()

	shutdownErr := m.Shutdown(context.Background())

	m.errMu.Lock()
	defer m.errMu.Unlock()
	return errors.Join(m.runErr, shutdownErr)
}

// Shutdown executes all registered hooks, respecting the configured timeout.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	var result error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.fn(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", h.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", h.name))
	}
	return result
}
