// Package api exposes the statistic, bootstrap tests and experiment results
// over HTTP.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"anchortest/app"
	"anchortest/domain/core"
	"anchortest/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is the JSON API
type Server struct {
	router      *gin.Engine
	server      *http.Server
	tests       *app.TestService
	experiments *app.ExperimentService
	logger      *zap.Logger
	alpha       float64
}

// NewServer creates the API server and registers its routes. mode is a gin
// mode ("debug", "release" or "test").
func NewServer(addr, mode string, tests *app.TestService, experiments *app.ExperimentService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode != "" {
		gin.SetMode(mode)
	}

	s := &Server{
		router:      gin.New(),
		tests:       tests,
		experiments: experiments,
		logger:      logger,
		alpha:       app.DefaultAlpha,
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/v1")
	v1.POST("/statistic", s.handleStatistic)
	v1.POST("/tests", s.handleTest)
	v1.GET("/experiments", s.handleListExperiments)
	v1.GET("/experiments/:id/results", s.handleResults)
	v1.GET("/experiments/:id/report", s.handleReport)
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown
func (s *Server) Start() error {
	s.logger.Info("api server listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "api server error")
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) handleStatistic(c *gin.Context) {
	var req PointSetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidInputf("invalid request body: %v", err))
		return
	}
	x, y, z, err := req.pointSets()
	if err != nil {
		s.writeError(c, err)
		return
	}

	value, err := s.tests.Statistic(c.Request.Context(), x, y, z)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatisticResponse{Statistic: value})
}

func (s *Server) handleTest(c *gin.Context) {
	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidInputf("invalid request body: %v", err))
		return
	}
	x, y, z, err := req.pointSets()
	if err != nil {
		s.writeError(c, err)
		return
	}

	replicates := s.tests.DefaultReplicates()
	if req.Replicates != nil {
		replicates = *req.Replicates
	}

	result, err := s.tests.Test(c.Request.Context(), x, y, z, replicates)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TestResponse{
		TestResult: *result,
		Decision:   result.Decide(s.alpha),
		Alpha:      s.alpha,
	})
}

func (s *Server) handleListExperiments(c *gin.Context) {
	summaries, err := s.experiments.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiments": summaries})
}

func (s *Server) handleResults(c *gin.Context) {
	id, ok := s.experimentID(c)
	if !ok {
		return
	}
	rows, err := s.experiments.Results(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiment_id": id, "rows": rows})
}

func (s *Server) handleReport(c *gin.Context) {
	id, ok := s.experimentID(c)
	if !ok {
		return
	}
	page, err := s.experiments.ReportHTML(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) experimentID(c *gin.Context) (core.ExperimentID, bool) {
	id, err := core.ParseExperimentID(c.Param("id"))
	if err != nil {
		s.writeError(c, errors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

func (s *Server) writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.CodeInternalError
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Error: err.Error()})
}

// StatusFor maps an error code onto an HTTP status
func StatusFor(code string) int {
	switch code {
	case errors.CodeInvalidInput, errors.CodeNumericDegenerate:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
