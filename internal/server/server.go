package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ChuLiYu/print-batcher/internal/config"
	"github.com/ChuLiYu/print-batcher/internal/jobfile"
	"github.com/ChuLiYu/print-batcher/internal/metrics"
	"github.com/ChuLiYu/print-batcher/internal/minmax"
	"github.com/ChuLiYu/print-batcher/internal/optimizer"
	"github.com/ChuLiYu/print-batcher/pkg/types"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

type MinMaxRequest struct {
	Values []float64 `json:"values"`
}

type MinMaxResponse struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type OptimizeRequest struct {
	Jobs        []types.Job                `json:"jobs"`
	Constraints *types.ConstraintOverrides `json:"constraints,omitempty"` // omitted fields use server defaults
}

// Server is the HTTP facade over the min/max and optimizer routines.
type Server struct {
	cfg       *config.Config
	log       *logrus.Logger
	collector *metrics.Collector
	engine    *gin.Engine
}

// NewServer builds the router. When metrics are enabled the collector is
// registered on a registry private to this server.
func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		log:    log,
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), requestID(), s.accessLog())

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		s.collector = metrics.NewCollector(reg)
		s.engine.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	s.engine.GET("/healthz", s.health)
	v1 := s.engine.Group("/v1")
	v1.POST("/minmax", s.minMax)
	v1.POST("/optimize", s.optimize)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.log.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) minMax(c *gin.Context) {
	var req MinMaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lo, hi, err := minmax.FindMinMax(req.Values)
	if err != nil {
		s.collector.RecordMinMax(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.collector.RecordMinMax(true)
	c.JSON(http.StatusOK, MinMaxResponse{Min: lo, Max: hi})
}

func (s *Server) optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := jobfile.Validate(req.Jobs); err != nil {
		s.collector.RecordOptimizeError()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	constraints := req.Constraints.Apply(s.cfg.Printer.Constraints())

	start := time.Now()
	res, err := optimizer.Optimize(req.Jobs, constraints)
	if err != nil {
		s.collector.RecordOptimizeError()
		status := http.StatusInternalServerError
		if errors.Is(err, optimizer.ErrInvalidConstraint) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.collector.RecordOptimize(res, time.Since(start))

	s.log.WithFields(logrus.Fields{
		requestIDKey: c.GetString(requestIDKey),
		"jobs":       len(req.Jobs),
		"batches":    len(res.Batches),
		"total_time": res.TotalTime,
	}).Debug("Plan computed")

	c.JSON(http.StatusOK, res)
}

// requestID reuses the caller's request id or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.log.WithFields(logrus.Fields{
			requestIDKey: c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start),
		}).Info("HTTP request")
	}
}
