package controllers

import (
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/rahul4469/crisis-analyzer/internal/analysis"
	"github.com/rahul4469/crisis-analyzer/internal/middleware"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/views"
	"go.uber.org/zap"
)

// AnalyzeController starts live analyses from the landing page handoff.
type AnalyzeController struct {
	templates AnalyzeTemplates
	registry  *analysis.Registry
	options   analysis.Options
	logger    *zap.Logger
}

// AnalyzeTemplates holds templates for the analysis page.
type AnalyzeTemplates struct {
	Page *views.Template
}

func NewAnalyzeController(
	templates AnalyzeTemplates,
	registry *analysis.Registry,
	options analysis.Options,
	logger *zap.Logger,
) *AnalyzeController {
	return &AnalyzeController{
		templates: templates,
		registry:  registry,
		options:   options,
		logger:    logger.Named("analyze"),
	}
}

// AnalyzePageData holds data for the analysis page template.
type AnalyzePageData struct {
	RunID         string
	Query         string
	Location      string
	EmergencyType models.EmergencyType
}

// GetAnalyze starts one backend call for the handoff taken by the
// middleware and renders the page that follows it. Only use behind
// RequireHandoff.
func (c *AnalyzeController) GetAnalyze(w http.ResponseWriter, r *http.Request) {
	h := middleware.MustCurrentHandoff(r)

	id := c.registry.NewID()
	run := analysis.Start(r.Context(), id, h, c.options)
	c.registry.Add(id, run)

	c.logger.Info("live run registered", zap.String("run_id", id))

	data := &views.TemplateData{
		Title:     "Analyzing situation",
		CSRFToken: csrf.Token(r),
		Data: AnalyzePageData{
			RunID:         id,
			Query:         run.Request.Scenario,
			Location:      run.Request.Location,
			EmergencyType: run.Request.EmergencyType,
		},
	}
	c.templates.Page.ExecuteHTTP(w, r, data)
}
