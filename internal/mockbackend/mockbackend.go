// Package mockbackend answers the analysis API with canned results so the
// server can be run without the real orchestrator.
package mockbackend

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rahul4469/crisis-analyzer/internal/middleware"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/scenario"
	"go.uber.org/zap"
)

const model = "canned"

// Server holds the canned results.
type Server struct {
	catalog *scenario.Catalog
	logger  *zap.Logger

	// Delay is added before every analysis answer.
	Delay time.Duration
}

func New(catalog *scenario.Catalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{catalog: catalog, logger: logger.Named("mockbackend")}
}

// Handler routes the analysis API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/", s.root)
	r.Get("/health", s.health)
	r.Post("/analyze", s.analyze)
	return r
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "crisis-analyzer mock backend",
		"status":  "operational",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"scenarios": s.catalog.Names(),
	})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	result, err := s.Result(req)
	if err != nil {
		s.logger.Error("failed to build result", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "no canned result"})
		return
	}

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// Result builds the answer for req: the real-emergency result for any
// classified emergency, the false-alarm result otherwise.
func (s *Server) Result(req models.AnalysisRequest) (*models.AnalysisResult, error) {
	name := scenario.RealEmergency
	if req.EmergencyType == models.EmergencyNone {
		name = scenario.FalseAlarm
	}
	sc, err := s.catalog.Get(name)
	if err != nil {
		return nil, err
	}

	result := sc.Result
	sources := make([]string, len(sc.Agents))
	for i, a := range sc.Agents {
		sources[i] = a.ID
	}

	result.EmergencyProcedures = s.catalog.Procedures(req.EmergencyType)
	result.DecisionMetadata = map[string]any{
		"stage1_decision": map[string]any{
			"is_emergency":   result.IsEmergency,
			"emergency_type": req.EmergencyType.String(),
			"confidence":     result.Confidence,
		},
		"stage1_model": model,
		"stage2_model": model,
	}
	result.Metadata = map[string]any{
		"scenario":             req.Scenario,
		"location":             req.Location,
		"emergency_type":       req.EmergencyType.String(),
		"intelligence_sources": sources,
	}
	return &result, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
