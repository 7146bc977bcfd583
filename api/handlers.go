package api

import (
	"net/http"
	"time"

	"goglam/domain/series"
	"goglam/engine"
	"goglam/internal/config"
	"goglam/internal/errors"
	"goglam/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// seriesPayload is the inline series representation accepted by the API.
type seriesPayload struct {
	Timestamps []time.Time          `json:"timestamps"`
	Values     []float64            `json:"values"`
	Capacity   []float64            `json:"capacity,omitempty"`
	Regressors map[string][]float64 `json:"regressors,omitempty"`
}

func (p *seriesPayload) toSeries() *series.Series {
	return &series.Series{
		Timestamps: p.Timestamps,
		Values:     p.Values,
		Capacity:   p.Capacity,
		Regressors: p.Regressors,
	}
}

type fitRequest struct {
	Name   string          `json:"name" binding:"required"`
	Config *config.Partial `json:"config"`
	Series seriesPayload   `json:"series" binding:"required"`
}

type predictRequest struct {
	Horizon        int                  `json:"horizon"`
	IncludeHistory bool                 `json:"include_history"`
	Timestamps     []time.Time          `json:"timestamps,omitempty"`
	Capacity       []float64            `json:"capacity,omitempty"`
	Regressors     map[string][]float64 `json:"regressors,omitempty"`
}

func (s *Server) handleFit(c *gin.Context) {
	var req fitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.InvalidInput(err.Error()))
		return
	}

	cfg, err := config.Resolve(config.FromEnv(), req.Config)
	if err != nil {
		abortWithError(c, err)
		return
	}

	m, err := engine.New(cfg)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := m.Fit(c.Request.Context(), req.Series.toSeries(), s.fitter); err != nil {
		abortWithError(c, err)
		return
	}

	snap, err := m.Snapshot()
	if err != nil {
		abortWithError(c, err)
		return
	}

	stored := &ports.StoredModel{
		ID:       uuid.New(),
		Name:     req.Name,
		Snapshot: snap,
	}
	if s.store != nil {
		if err := s.store.SaveModel(c.Request.Context(), stored); err != nil {
			abortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     stored.ID,
		"name":   stored.Name,
		"params": snap.Params,
	})
}

func (s *Server) handleGetModel(c *gin.Context) {
	stored, err := s.store.GetModelByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (s *Server) handleListModels(c *gin.Context) {
	models, err := s.store.ListModels(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	summaries := make([]gin.H, 0, len(models))
	for _, m := range models {
		summaries = append(summaries, gin.H{
			"id":         m.ID,
			"name":       m.Name,
			"model":      m.Snapshot.Config.Family,
			"fitted_at":  m.Snapshot.FittedAt,
			"updated_at": m.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"models": summaries})
}

func (s *Server) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.InvalidInput(err.Error()))
		return
	}

	stored, err := s.store.GetModelByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	m, err := engine.FromSnapshot(stored.Snapshot)
	if err != nil {
		abortWithError(c, err)
		return
	}

	times := req.Timestamps
	if len(times) == 0 {
		if req.Horizon <= 0 {
			abortWithError(c, errors.InvalidInput("horizon or explicit timestamps required"))
			return
		}
		times, err = m.Horizon(req.Horizon, req.IncludeHistory)
		if err != nil {
			abortWithError(c, err)
			return
		}
	}

	pred, err := m.Predict(c.Request.Context(), times, engine.PredictOptions{
		Capacity:   req.Capacity,
		Regressors: req.Regressors,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pred)
}

func (s *Server) handleDeleteModel(c *gin.Context) {
	stored, err := s.store.GetModelByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := s.store.DeleteModel(c.Request.Context(), stored.ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
