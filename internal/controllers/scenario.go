package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/rahul4469/crisis-analyzer/internal/analysis"
	"github.com/rahul4469/crisis-analyzer/internal/scenario"
	"github.com/rahul4469/crisis-analyzer/internal/views"
	"go.uber.org/zap"
)

// ScenarioController serves the canned walkthroughs.
type ScenarioController struct {
	templates ScenarioTemplates
	catalog   *scenario.Catalog
	registry  *analysis.Registry
	now       func() time.Time
	logger    *zap.Logger
}

type ScenarioTemplates struct {
	Page  *views.Template
	Error *views.Template
}

func NewScenarioController(
	templates ScenarioTemplates,
	catalog *scenario.Catalog,
	registry *analysis.Registry,
	logger *zap.Logger,
) *ScenarioController {
	return &ScenarioController{
		templates: templates,
		catalog:   catalog,
		registry:  registry,
		now:       time.Now,
		logger:    logger.Named("scenario"),
	}
}

// ScenarioPageData holds data for the scenario page template.
type ScenarioPageData struct {
	Name     string
	Title    string
	Query    string
	Location string
}

// GetScenario renders the walkthrough page. Nothing runs until the page
// asks for it.
func (c *ScenarioController) GetScenario(w http.ResponseWriter, r *http.Request) {
	s, err := c.catalog.Get(chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, scenario.ErrScenarioNotFound) {
			renderError(c.templates.Error, w, r, http.StatusNotFound, "Unknown walkthrough.")
			return
		}
		renderError(c.templates.Error, w, r, http.StatusInternalServerError, "Failed to load walkthrough.")
		return
	}

	data := &views.TemplateData{
		Title:     s.Title,
		CSRFToken: csrf.Token(r),
		Data: ScenarioPageData{
			Name:     s.Name,
			Title:    s.Title,
			Query:    s.Query,
			Location: s.Location,
		},
	}
	c.templates.Page.ExecuteHTTP(w, r, data)
}

type startResponse struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// PostStart registers a fresh run of the scenario.
func (c *ScenarioController) PostStart(w http.ResponseWriter, r *http.Request) {
	s, err := c.catalog.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, errorStatus(err), "unknown scenario")
		return
	}

	id := c.registry.NewID()
	c.registry.Add(id, scenario.NewRun(id, s, c.now()))
	c.logger.Info("scenario run registered",
		zap.String("run_id", id),
		zap.String("scenario", s.Name))

	writeJSON(w, http.StatusCreated, startResponse{ID: id, Kind: "scenario", Name: s.Name})
}
