package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rahul4469/crisis-analyzer/internal/analysis"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"go.uber.org/zap"
)

// DefaultEventInterval is how often the event stream samples a run.
const DefaultEventInterval = 250 * time.Millisecond

// RunsController exposes live and scenario runs as JSON.
type RunsController struct {
	registry *analysis.Registry
	archive  RunArchive
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// RunArchive looks up live runs that have left the registry. It is nil
// when no database is configured.
type RunArchive interface {
	ByRunID(ctx context.Context, runID string) (*models.Analysis, error)
}

func NewRunsController(registry *analysis.Registry, archive RunArchive, interval time.Duration, logger *zap.Logger) *RunsController {
	if interval <= 0 {
		interval = DefaultEventInterval
	}
	return &RunsController{
		registry: registry,
		archive:  archive,
		interval: interval,
		now:      time.Now,
		logger:   logger.Named("runs"),
	}
}

// finisher is implemented by every snapshot kind.
type finisher interface {
	Finished() bool
}

// stepper is implemented by runs with a navigable walkthrough.
type stepper interface {
	SetStep(now time.Time, i int) error
}

func (c *RunsController) session(w http.ResponseWriter, r *http.Request) (analysis.Session, bool) {
	s, err := c.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errorStatus(err), "run not found")
		return nil, false
	}
	return s, true
}

// archivedRun is returned for a live run that was swept from the registry.
type archivedRun struct {
	ID       string           `json:"id"`
	Kind     string           `json:"kind"`
	Analysis *models.Analysis `json:"analysis"`
}

// GetRun returns the run as it is now, or its archived record once the run
// has been swept.
func (c *RunsController) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := c.registry.Get(id)
	if err == nil {
		writeJSON(w, http.StatusOK, s.Snapshot(c.now()))
		return
	}
	if c.archive == nil || !errors.Is(err, models.ErrRunNotFound) {
		writeError(w, errorStatus(err), "run not found")
		return
	}

	a, err := c.archive.ByRunID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, models.ErrAnalysisNotFound) {
			c.logger.Error("failed to load archived run", zap.String("run_id", id), zap.Error(err))
		}
		writeError(w, errorStatus(err), "run not found")
		return
	}
	writeJSON(w, http.StatusOK, archivedRun{ID: id, Kind: "archived", Analysis: a})
}

// GetEvents streams snapshots as server-sent events until the run finishes
// or the client goes away. Unchanged snapshots are not resent.
func (c *RunsController) GetEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	var last []byte
	for {
		snap := s.Snapshot(c.now())
		body, err := json.Marshal(snap)
		if err != nil {
			c.logger.Error("failed to encode snapshot", zap.Error(err))
			return
		}
		if string(body) != string(last) {
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", body); err != nil {
				return
			}
			flusher.Flush()
			last = body
		}
		if f, ok := snap.(finisher); ok && f.Finished() {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

type stepRequest struct {
	Step int `json:"step"`
}

// PostStep moves a revealed walkthrough to another evacuation step and
// returns the updated snapshot.
func (c *RunsController) PostStep(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	st, ok := s.(stepper)
	if !ok {
		writeError(w, http.StatusConflict, "run has no walkthrough")
		return
	}

	var req stepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := c.now()
	if err := st.SetStep(now, req.Step); err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, errorStatus(err), "failed to move step")
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot(now))
}
