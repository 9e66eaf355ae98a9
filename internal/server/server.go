package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/processor"
	"github.com/rezonia/finvoice-apix/internal/store"
)

// Config holds server configuration
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Companies looks up the companies requests act for
type Companies interface {
	Company(ctx context.Context, id string) (model.Company, error)
}

// Server represents the HTTP API server
type Server struct {
	config    *Config
	router    *gin.Engine
	pipeline  *processor.Pipeline
	companies Companies
	logger    *zap.Logger
}

// NewServer creates a new API server
func NewServer(config *Config, pipeline *processor.Pipeline, companies Companies, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:    config,
		router:    router,
		pipeline:  pipeline,
		companies: companies,
		logger:    logger,
	}
	router.Use(s.loggingMiddleware())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/export", s.handleExport)
		v1.POST("/import", s.handleImport)

		v1.POST("/companies/:id/fetch", s.handleFetch)
		v1.GET("/companies/:id/pending", s.handlePending)
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("Starting HTTP server", zap.String("address", s.config.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Stopping HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleExport(c *gin.Context) {
	var inv model.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice", Details: err.Error()})
		return
	}
	if inv.Company.ID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "company.id is required"})
		return
	}

	company, err := s.companies.Company(c.Request.Context(), inv.Company.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	inv.Company = company

	receipt, err := s.pipeline.Export(c.Request.Context(), &inv)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ExportResponse{
		Name:     receipt.Name,
		MimeType: receipt.MimeType,
		Size:     len(receipt.Content),
		Response: receipt.Response,
	})
}

func (s *Server) handleImport(c *gin.Context) {
	companyID := c.Query("company")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "company query parameter is required"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return
	}

	company, err := s.companies.Company(c.Request.Context(), companyID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	imported, err := s.pipeline.Import(c.Request.Context(), company, body)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ImportResponse{ID: imported.ID, Result: imported.Result})
}

func (s *Server) handleFetch(c *gin.Context) {
	company, err := s.companies.Company(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	report, err := s.pipeline.FetchPendingForCompany(c.Request.Context(), company)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := FetchResponse{FetchReport: report}
	for _, e := range report.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePending(c *gin.Context) {
	company, err := s.companies.Company(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	files, err := s.pipeline.Pending(c.Request.Context(), company)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if files == nil {
		files = []model.FileDescriptor{}
	}
	c.JSON(http.StatusOK, PendingResponse{Files: files})
}

// writeError maps error kinds to status codes
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		verr *model.ValidationError
		aerr *model.AuthorizationError
		perr *model.ParseError
		terr *model.TransportError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Field: verr.Field})
	case errors.As(err, &aerr):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.As(err, &perr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.As(err, &terr):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "apix " + terr.Operation + " failed", Details: terr.Body})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error()})
	default:
		s.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
