package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/mem"
)

// registerRoutes wires the embed script, health check, and backend proxy.
func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/embed.js", s.handleEmbedScript)
	r.HEAD("/embed.js", s.handleEmbedScript)
	r.GET("/healthz", s.handleHealth)

	// ── Backend proxy ─────────────────────────────────────────────────────────
	for _, prefix := range []string{"/api", "/images"} {
		r.Any(prefix, s.handleProxy)
		r.Any(prefix+"/*path", s.handleProxy)
	}
}

// handleEmbedScript serves the widget loader.
//
//	GET /embed.js
func (s *Server) handleEmbedScript(c *gin.Context) {
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", s.loader.Script())
}

// healthReport is the /healthz body. Stats that cannot be read are omitted.
type healthReport struct {
	Status             string    `json:"status"`
	Time               time.Time `json:"time"`
	Backend            string    `json:"backend"`
	UptimeSeconds      int64     `json:"uptime_seconds"`
	Goroutines         int       `json:"goroutines"`
	RSSBytes           uint64    `json:"rss_bytes,omitempty"`
	Threads            int32     `json:"threads,omitempty"`
	HostMemUsedPercent float64   `json:"host_mem_used_percent,omitempty"`
}

// handleHealth reports liveness. It does not contact the backend.
//
//	GET /healthz
func (s *Server) handleHealth(c *gin.Context) {
	rep := healthReport{
		Status:        "ok",
		Time:          time.Now().UTC(),
		Backend:       s.cfg.BackendURL,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}
	if s.proc != nil {
		if mi, err := s.proc.MemoryInfoWithContext(c.Request.Context()); err == nil {
			rep.RSSBytes = mi.RSS
		}
		if n, err := s.proc.NumThreadsWithContext(c.Request.Context()); err == nil {
			rep.Threads = n
		}
	}
	if vm, err := mem.VirtualMemoryWithContext(c.Request.Context()); err == nil {
		rep.HostMemUsedPercent = vm.UsedPercent
	}
	c.JSON(http.StatusOK, rep)
}
