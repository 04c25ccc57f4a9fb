package controllers

import (
	"errors"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/scenario"
	"github.com/rahul4469/crisis-analyzer/internal/views"
	"go.uber.org/zap"
)

// StaticController handles the landing page and its form.
type StaticController struct {
	templates StaticTemplates
	store     models.HandoffStore
	catalog   *scenario.Catalog
	cookie    CookieConfig
	logger    *zap.Logger
}

// StaticTemplates holds templates for static pages.
type StaticTemplates struct {
	Home  *views.Template
	Error *views.Template
}

// NewStaticController creates a new StaticController.
func NewStaticController(
	templates StaticTemplates,
	store models.HandoffStore,
	catalog *scenario.Catalog,
	cookie CookieConfig,
	logger *zap.Logger,
) *StaticController {
	return &StaticController{
		templates: templates,
		store:     store,
		catalog:   catalog,
		cookie:    cookie,
		logger:    logger.Named("static"),
	}
}

// HomeData holds data for the home page template.
type HomeData struct {
	Query     string
	Location  string
	Scenarios []string
}

// GetHome renders the landing form.
func (c *StaticController) GetHome(w http.ResponseWriter, r *http.Request) {
	data := &views.TemplateData{
		Title:     "Crisis Analyzer",
		CSRFField: csrf.TemplateField(r),
		CSRFToken: csrf.Token(r),
		Data:      HomeData{Scenarios: c.catalog.Names()},
	}
	c.templates.Home.ExecuteHTTP(w, r, data)
}

// PostHome stores the form fields for the analysis page and redirects there.
func (c *StaticController) PostHome(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.renderFormError(w, r, "", "", "Invalid form data")
		return
	}

	query := r.FormValue("query")
	location := r.FormValue("location")

	h, err := c.store.Put(r.Context(), query, location)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.renderFormError(w, r, query, location, "Please describe the situation and enter a location.")
			return
		}
		c.logger.Error("failed to store handoff", zap.Error(err))
		c.renderFormError(w, r, query, location, "Something went wrong. Please try again.")
		return
	}

	setCookie(w, c.cookie, h.Token)
	http.Redirect(w, r, "/analyze", http.StatusSeeOther)
}

// renderFormError renders the form with an error message.
func (c *StaticController) renderFormError(w http.ResponseWriter, r *http.Request, query, location, errMsg string) {
	data := &views.TemplateData{
		Title:     "Crisis Analyzer",
		CSRFField: csrf.TemplateField(r),
		CSRFToken: csrf.Token(r),
		Error:     errMsg,
		Data: HomeData{
			Query:     query,
			Location:  location,
			Scenarios: c.catalog.Names(),
		},
	}
	c.templates.Home.ExecuteHTTPWithStatus(w, r, http.StatusUnprocessableEntity, data)
}

// ErrorData holds data for the error page template.
type ErrorData struct {
	Status  int
	Message string
}

// NotFound renders the error page for unknown routes.
func (c *StaticController) NotFound(w http.ResponseWriter, r *http.Request) {
	renderError(c.templates.Error, w, r, http.StatusNotFound, "Page not found.")
}

func renderError(tpl *views.Template, w http.ResponseWriter, r *http.Request, status int, msg string) {
	data := &views.TemplateData{
		Title:     http.StatusText(status),
		CSRFToken: csrf.Token(r),
		Data:      ErrorData{Status: status, Message: msg},
	}
	tpl.ExecuteHTTPWithStatus(w, r, status, data)
}

// HealthCheck returns a simple health status for monitoring.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
