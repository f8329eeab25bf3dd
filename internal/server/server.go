// Package server exposes the engine over HTTP for long-running hosts:
// classification, status, health, and Prometheus metrics.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qualitygate/qualitygate/internal/engine"
	"github.com/qualitygate/qualitygate/internal/learning"
	"github.com/qualitygate/qualitygate/internal/logger"
	"github.com/qualitygate/qualitygate/internal/pattern"
)

// Server wires the engine into a gin router.
type Server struct {
	engine   *engine.Engine
	adjuster *learning.Adjuster
	registry *prometheus.Registry
	log      *logger.EventLogger
}

// New creates a server. adjuster and log may be nil.
func New(eng *engine.Engine, adj *learning.Adjuster, reg *prometheus.Registry, log *logger.EventLogger) *Server {
	return &Server{engine: eng, adjuster: adj, registry: reg, log: log}
}

type classifyRequest struct {
	Text  string   `json:"text" binding:"required"`
	Tiers []string `json:"tiers,omitempty"`
}

// Router builds the HTTP routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	api.POST("/classify", s.handleClassify)
	api.GET("/status", s.handleStatus)

	return r
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tiers []pattern.Tier
	for _, name := range req.Tiers {
		t := pattern.Tier(name)
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tier: " + name})
			return
		}
		tiers = append(tiers, t)
	}

	var verdict engine.Verdict
	if len(tiers) > 0 {
		verdict = s.engine.ClassifyFiltered(c.Request.Context(), req.Text, tiers)
	} else {
		verdict = s.engine.Classify(c.Request.Context(), req.Text)
	}

	if s.log != nil {
		_ = s.log.Log(logger.Event{
			Kind:      logger.KindClassify,
			Input:     req.Text,
			Severity:  string(verdict.Severity),
			Matched:   verdict.MatchedIDs(),
			Degraded:  verdict.Degraded,
			ElapsedMS: float64(verdict.Elapsed) / float64(time.Millisecond),
			Version:   verdict.Version,
			Source:    "api",
		})
	}

	c.JSON(http.StatusOK, verdict)
}

func (s *Server) handleStatus(c *gin.Context) {
	resp := gin.H{"engine": s.engine.Stats()}
	if s.adjuster != nil {
		resp["learning"] = s.adjuster.Stats()
	}
	c.JSON(http.StatusOK, resp)
}
