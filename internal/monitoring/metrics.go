// Package monitoring records request metrics and serves the health,
// readiness, liveness and metrics endpoints.
package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	RequestCount    int64            `json:"request_count"`
	RequestDuration float64          `json:"avg_request_duration_ms"`
	ActiveRequests  int64            `json:"active_requests"`
	ErrorCount      int64            `json:"error_count"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	Endpoints       map[string]int64 `json:"endpoint_calls"`
	StartTime       time.Time        `json:"start_time"`
	LastRequest     time.Time        `json:"last_request"`
}

type HealthCheck struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Duration string    `json:"duration"`
	LastRun  time.Time `json:"last_run"`
}

type HealthCheckFunc func(ctx context.Context) error

// StatsFunc reports component statistics for the metrics endpoint.
type StatsFunc func() map[string]interface{}

type check struct {
	fn       HealthCheckFunc
	critical bool
}

// Monitor aggregates request metrics and the registered health checks.
type Monitor struct {
	mu            sync.Mutex
	metrics       Metrics
	totalDuration time.Duration

	checksMu sync.RWMutex
	checks   map[string]check
	stats    map[string]StatsFunc
	timeout  time.Duration
}

func NewMonitor() *Monitor {
	return &Monitor{
		metrics: Metrics{
			StatusCodes: make(map[string]int64),
			Endpoints:   make(map[string]int64),
			StartTime:   time.Now(),
		},
		checks:  make(map[string]check),
		stats:   make(map[string]StatsFunc),
		timeout: 5 * time.Second,
	}
}

// RegisterHealthCheck adds a named check. A failing critical check makes
// the service unhealthy and not ready; a failing non-critical check only
// degrades /health.
func (m *Monitor) RegisterHealthCheck(name string, critical bool, fn HealthCheckFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.checks[name] = check{fn: fn, critical: critical}
}

func (m *Monitor) RegisterStats(name string, fn StatsFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.stats[name] = fn
}

func (m *Monitor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mu.Lock()
		m.metrics.ActiveRequests++
		m.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()
		if c.FullPath() == "" {
			endpoint = c.Request.Method + " unmatched"
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		m.metrics.RequestCount++
		m.metrics.ActiveRequests--
		m.totalDuration += duration
		m.metrics.RequestDuration = float64(m.totalDuration.Microseconds()) / 1000 / float64(m.metrics.RequestCount)
		m.metrics.LastRequest = time.Now()

		if statusCode >= 400 {
			m.metrics.ErrorCount++
		}
		m.metrics.StatusCodes[http.StatusText(statusCode)]++
		m.metrics.Endpoints[endpoint]++
	}
}

func (m *Monitor) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.metrics
	snap.StatusCodes = make(map[string]int64, len(m.metrics.StatusCodes))
	snap.Endpoints = make(map[string]int64, len(m.metrics.Endpoints))
	for k, v := range m.metrics.StatusCodes {
		snap.StatusCodes[k] = v
	}
	for k, v := range m.metrics.Endpoints {
		snap.Endpoints[k] = v
	}
	return snap
}

type SystemMetrics struct {
	Uptime         string      `json:"uptime"`
	MemoryUsage    MemoryStats `json:"memory"`
	GoroutineCount int         `json:"goroutine_count"`
	CPUCount       int         `json:"cpu_count"`
	GoVersion      string      `json:"go_version"`
}

type MemoryStats struct {
	Alloc      uint64 `json:"alloc_mb"`
	TotalAlloc uint64 `json:"total_alloc_mb"`
	Sys        uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
}

func (m *Monitor) system() SystemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return SystemMetrics{
		Uptime: time.Since(m.metrics.StartTime).Round(time.Second).String(),
		MemoryUsage: MemoryStats{
			Alloc:      bToMb(ms.Alloc),
			TotalAlloc: bToMb(ms.TotalAlloc),
			Sys:        bToMb(ms.Sys),
			NumGC:      ms.NumGC,
		},
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
		GoVersion:      runtime.Version(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// RunHealthChecks executes every registered check and reports whether all
// critical checks passed.
func (m *Monitor) RunHealthChecks(ctx context.Context) (map[string]HealthCheck, bool) {
	m.checksMu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]check, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.checksMu.RUnlock()
	sort.Strings(names)

	results := make(map[string]HealthCheck, len(names))
	healthy := true
	for _, name := range names {
		c := checks[name]
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		start := time.Now()
		err := c.fn(checkCtx)
		cancel()

		hc := HealthCheck{
			Name:     name,
			Status:   "healthy",
			Duration: time.Since(start).String(),
			LastRun:  time.Now(),
		}
		if err != nil {
			hc.Status = "unhealthy"
			hc.Message = err.Error()
			if c.critical {
				healthy = false
			} else {
				hc.Status = "degraded"
			}
		}
		results[name] = hc
	}
	return results, healthy
}

func (m *Monitor) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		components := make(map[string]interface{})
		m.checksMu.RLock()
		for name, fn := range m.stats {
			components[name] = fn()
		}
		m.checksMu.RUnlock()

		c.JSON(http.StatusOK, gin.H{
			"application": m.Snapshot(),
			"system":      m.system(),
			"components":  components,
			"timestamp":   time.Now(),
		})
	}
}

func (m *Monitor) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks, healthy := m.RunHealthChecks(c.Request.Context())

		overallStatus := "healthy"
		status := http.StatusOK
		if !healthy {
			overallStatus = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			for _, hc := range checks {
				if hc.Status == "degraded" {
					overallStatus = "degraded"
					break
				}
			}
		}

		c.JSON(status, gin.H{
			"status":    overallStatus,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(m.metrics.StartTime).Round(time.Second).String(),
		})
	}
}

func (m *Monitor) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, healthy := m.RunHealthChecks(c.Request.Context()); !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	}
}

func (m *Monitor) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
			"uptime":    time.Since(m.metrics.StartTime).Round(time.Second).String(),
		})
	}
}
