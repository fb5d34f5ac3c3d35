package api

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/domotica-core/internal/notify"
)

// healthCheckTimeout bounds each component check of GET /health.
const healthCheckTimeout = 2 * time.Second

// Stats is the response of GET /stats.
type Stats struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Catalog       CatalogCounts   `json:"catalog"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	Events        *notify.Stats   `json:"events,omitempty"`
	Database      DatabaseMetrics `json:"database"`
}

// CatalogCounts holds the number of stored entities of each type.
type CatalogCounts struct {
	Rooms   int `json:"rooms"`
	Devices int `json:"devices"`
	Actions int `json:"actions"`
	Scenes  int `json:"scenes"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// DatabaseMetrics contains connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// countCatalog runs the four counts concurrently.
func (s *Server) countCatalog(ctx context.Context) (CatalogCounts, error) {
	var c CatalogCounts
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { c.Rooms, err = s.rooms.CountRooms(ctx); return err })
	g.Go(func() (err error) { c.Devices, err = s.devices.CountDevices(ctx); return err })
	g.Go(func() (err error) { c.Actions, err = s.actions.CountActions(ctx); return err })
	g.Go(func() (err error) { c.Scenes, err = s.scenes.CountScenes(ctx); return err })
	return c, g.Wait()
}

// handleStats returns entity counts plus runtime, hub, dispatcher and pool
// statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.countCatalog(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	dbStats := s.db.Stats()

	stats := Stats{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Catalog:       counts,
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{ConnectedClients: s.hub.ClientCount()},
		Database: DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		},
	}
	if s.events != nil {
		ev := s.events.Stats()
		stats.Events = &ev
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleHealth reports "ok" when the database and every optional component
// pass their checks. A failing database makes the service unavailable; a
// failing optional component only degrades it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{}
	status, code := "ok", http.StatusOK

	if err := s.db.HealthCheck(ctx); err != nil {
		checks["database"] = err.Error()
		status, code = "unavailable", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.checks[name].HealthCheck(ctx); err != nil {
			checks[name] = err.Error()
			if code == http.StatusOK {
				status = "degraded"
			}
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}
