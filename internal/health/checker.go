package health

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zsiec/termreel/internal/errors"
	"github.com/zsiec/termreel/internal/logger"
)

// Status represents the health status of a component.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Check represents a health check result.
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Required    bool          `json:"required"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"-"`
	DurationMS  float64       `json:"duration_ms"`
}

// Checker is the interface that health checkers must implement.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

type registration struct {
	checker  Checker
	required bool
}

// Manager runs the preflight checks that decide whether playback can start.
// A failing required check is down; a failing optional check only degrades.
type Manager struct {
	checkers []registration
	results  map[string]*Check
	timeout  time.Duration
	mu       sync.RWMutex
	log      logger.Logger
}

// NewManager creates a manager that gives each check at most timeout.
func NewManager(log logger.Logger, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Manager{
		results: make(map[string]*Check),
		timeout: timeout,
		log:     logger.WithComponent(log, "health"),
	}
}

// Register adds a check that playback cannot do without.
func (m *Manager) Register(checker Checker) {
	m.register(checker, true)
}

// RegisterOptional adds a check whose failure only disables a feature.
func (m *Manager) RegisterOptional(checker Checker) {
	m.register(checker, false)
}

func (m *Manager) register(checker Checker, required bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, registration{checker: checker, required: required})
	m.log.WithFields(logger.Fields{
		"checker":  checker.Name(),
		"required": required,
	}).Debug("Registered health checker")
}

// RunChecks executes all registered checks concurrently.
func (m *Manager) RunChecks(ctx context.Context) map[string]*Check {
	m.mu.RLock()
	regs := append([]registration(nil), m.checkers...)
	m.mu.RUnlock()

	var wg sync.WaitGroup
	resultsChan := make(chan *Check, len(regs))

	for _, reg := range regs {
		wg.Add(1)
		go func(reg registration) {
			defer wg.Done()
			resultsChan <- m.run(ctx, reg)
		}(reg)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make(map[string]*Check, len(regs))
	for check := range resultsChan {
		results[check.Name] = check
		m.mu.Lock()
		m.results[check.Name] = check
		m.mu.Unlock()
	}
	return results
}

func (m *Manager) run(ctx context.Context, reg registration) *Check {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := reg.checker.Check(checkCtx)
	duration := time.Since(start)

	check := &Check{
		Name:        reg.checker.Name(),
		Required:    reg.required,
		Status:      StatusOK,
		LastChecked: time.Now(),
		Duration:    duration,
		DurationMS:  float64(duration.Milliseconds()),
	}
	log := m.log.WithFields(logger.Fields{
		"checker":  check.Name,
		"duration": duration,
	})

	if err == nil {
		log.Debug("Health check passed")
		return check
	}

	check.Message = err.Error()
	if stderrors.Is(err, context.DeadlineExceeded) {
		check.Message = "health check timed out"
	}
	if reg.required {
		check.Status = StatusDown
		log.WithError(err).Error("Health check failed")
	} else {
		check.Status = StatusDegraded
		log.WithError(err).Warn("Optional health check failed")
	}
	return check
}

// GetResults returns copies of the latest results.
func (m *Manager) GetResults() map[string]*Check {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]*Check, len(m.results))
	for k, v := range m.results {
		checkCopy := *v
		results[k] = &checkCopy
	}
	return results
}

// Healthy reports whether the named check last passed.
func (m *Manager) Healthy(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.results[name]
	return ok && c.Status == StatusOK
}

// GetOverallStatus returns the combined status of the latest results.
func (m *Manager) GetOverallStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.results) == 0 {
		return StatusDown
	}

	hasDown := false
	hasDegraded := false
	for _, check := range m.results {
		switch check.Status {
		case StatusDown:
			hasDown = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasDown {
		return StatusDown
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusOK
}

// Err returns a config error naming every failed required check, or nil.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var failed []string
	for _, check := range m.results {
		if check.Status == StatusDown {
			failed = append(failed, check.Name+": "+check.Message)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	sort.Strings(failed)
	return errors.NewConfigError("preflight failed: " + strings.Join(failed, "; "))
}
