// Package api exposes fitting and prediction over HTTP.
package api

import (
	"net/http"

	"goglam/engine/family"
	"goglam/internal"
	"goglam/internal/errors"
	"goglam/ports"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP surface over the forecasting engine: fit models,
// persist them, and serve predictions from stored snapshots.
type Server struct {
	router *gin.Engine
	store  ports.ModelStorePort
	fitter ports.FitterPort
}

// NewServer wires the HTTP routes onto the given store and fitter backend.
func NewServer(store ports.ModelStorePort, fitter ports.FitterPort) *Server {
	s := &Server{
		router: gin.Default(),
		store:  store,
		fitter: fitter,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/families", s.handleFamilies)
		api.GET("/models", s.handleListModels)
		api.POST("/models", s.handleFit)
		api.GET("/models/:name", s.handleGetModel)
		api.POST("/models/:name/predict", s.handlePredict)
		api.DELETE("/models/:name", s.handleDeleteModel)
	}
}

// Run starts the server on the given address.
func (s *Server) Run(addr string) error {
	internal.DefaultLogger.Info("Starting forecast API server on %s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleFamilies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"families": family.Names()})
}

// statusFor maps structured error codes onto HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeConfigInvalid, errors.CodeInvalidInput, errors.CodeDomainMismatch, errors.CodeDegenerateInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeNotFitted:
		return http.StatusConflict
	case errors.CodeOptimization:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
