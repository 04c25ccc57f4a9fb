package controllers

import (
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/views"
	"go.uber.org/zap"
)

const historyLimit = 20

// HistoryController lists archived live analyses.
type HistoryController struct {
	templates HistoryTemplates
	recorder  models.AnalysisRecorder
	enabled   bool
	logger    *zap.Logger
}

type HistoryTemplates struct {
	Page *views.Template
}

// NewHistoryController creates a HistoryController. enabled is false when
// the recorder keeps nothing.
func NewHistoryController(templates HistoryTemplates, recorder models.AnalysisRecorder, enabled bool, logger *zap.Logger) *HistoryController {
	return &HistoryController{
		templates: templates,
		recorder:  recorder,
		enabled:   enabled,
		logger:    logger.Named("history"),
	}
}

// HistoryData holds data for the history template.
type HistoryData struct {
	Enabled  bool
	Analyses []*models.Analysis
}

// GetHistory renders the most recent analyses.
func (c *HistoryController) GetHistory(w http.ResponseWriter, r *http.Request) {
	data := &views.TemplateData{
		Title:     "History",
		CSRFToken: csrf.Token(r),
	}

	analyses, err := c.recorder.Recent(r.Context(), historyLimit)
	if err != nil {
		c.logger.Error("failed to list analyses", zap.Error(err))
		data.Error = "Failed to load history."
	}
	data.Data = HistoryData{Enabled: c.enabled, Analyses: analyses}

	c.templates.Page.ExecuteHTTP(w, r, data)
}

// GetHistoryJSON returns the same list as JSON.
func (c *HistoryController) GetHistoryJSON(w http.ResponseWriter, r *http.Request) {
	analyses, err := c.recorder.Recent(r.Context(), historyLimit)
	if err != nil {
		c.logger.Error("failed to list analyses", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if analyses == nil {
		analyses = []*models.Analysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}
