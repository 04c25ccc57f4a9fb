package main

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/rahul4469/crisis-analyzer/internal/analysis"
	"github.com/rahul4469/crisis-analyzer/internal/config"
	"github.com/rahul4469/crisis-analyzer/internal/controllers"
	"github.com/rahul4469/crisis-analyzer/internal/middleware"
	"github.com/rahul4469/crisis-analyzer/internal/overlay"
	"github.com/rahul4469/crisis-analyzer/internal/views"
	"github.com/rahul4469/crisis-analyzer/templates"
	"go.uber.org/zap"
)

func routes(cfg *config.Config, d deps, logger *zap.Logger) http.Handler {
	// Setup Controllers ---------------
	errorTpl := views.MustParseFS(templates.FS, "pages/error.gohtml")

	staticCtrl := controllers.NewStaticController(
		controllers.StaticTemplates{
			Home:  views.MustParseFS(templates.FS, "pages/home.gohtml"),
			Error: errorTpl,
		},
		d.store,
		d.catalog,
		controllers.CookieConfig{
			Name:   cfg.Security.HandoffCookieName,
			MaxAge: cfg.Security.HandoffTTL,
			Secure: cfg.Security.SecureCookies,
		},
		logger,
	)

	analyzeCtrl := controllers.NewAnalyzeController(
		controllers.AnalyzeTemplates{
			Page: views.MustParseFS(templates.FS, "pages/analyze.gohtml"),
		},
		d.registry,
		analysis.Options{
			Plan:     analysis.NewPlan(cfg.Runs.AgentStep, cfg.Runs.AgentFinalDelay),
			Analyzer: d.backend,
			Recorder: d.recorder,
			Geocoder: d.geocoder,
			Logger:   logger,
		},
		logger,
	)

	scenarioCtrl := controllers.NewScenarioController(
		controllers.ScenarioTemplates{
			Page:  views.MustParseFS(templates.FS, "pages/scenario.gohtml"),
			Error: errorTpl,
		},
		d.catalog,
		d.registry,
		logger,
	)

	historyCtrl := controllers.NewHistoryController(
		controllers.HistoryTemplates{
			Page: views.MustParseFS(templates.FS, "pages/history.gohtml"),
		},
		d.recorder,
		d.history,
		logger,
	)

	runsCtrl := controllers.NewRunsController(d.registry, d.archive, controllers.DefaultEventInterval, logger)
	overlayCtrl := controllers.NewOverlayController(overlay.DefaultTileLayer())

	handoffMw := middleware.NewHandoffMiddleware(
		d.store,
		cfg.Security.HandoffCookieName,
		cfg.Security.SecureCookies,
		logger,
	)

	// CSRF middleware
	csrfMw := csrf.Protect(
		[]byte(cfg.Security.CSRFSecret),
		csrf.Secure(cfg.Security.SecureCookies),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(trustedOrigins(cfg.Server.BaseURL)),
	)

	// Setup router and routes
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", controllers.HealthCheck)

	r.Group(func(r chi.Router) {
		if !cfg.Security.SecureCookies {
			r.Use(plaintextHTTP)
		}
		r.Use(csrfMw)

		// ---- Landing ----
		r.Get("/", staticCtrl.GetHome)
		r.Post("/", staticCtrl.PostHome)

		// ---- Live analysis, only reachable through the landing form ----
		r.With(handoffMw.SetHandoff, handoffMw.RequireHandoff).Get("/analyze", analyzeCtrl.GetAnalyze)

		// ---- Walkthroughs ----
		r.Get("/scenario/{name}", scenarioCtrl.GetScenario)
		r.Post("/scenario/{name}/start", scenarioCtrl.PostStart)

		r.Get("/history", historyCtrl.GetHistory)

		// ---- JSON API polled by the pages ----
		r.Route("/api", func(r chi.Router) {
			r.Get("/history", historyCtrl.GetHistoryJSON)
			r.Get("/runs/{id}", runsCtrl.GetRun)
			r.Get("/runs/{id}/events", runsCtrl.GetEvents)
			r.Post("/runs/{id}/step", runsCtrl.PostStep)
			r.Post("/overlay", overlayCtrl.PostOverlay)
		})
	})

	r.NotFound(staticCtrl.NotFound)
	return r
}

// plaintextHTTP tells the CSRF middleware the request did not arrive over
// TLS, so it skips the strict referer check meant for HTTPS.
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

func trustedOrigins(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
