package scenario

import (
	"fmt"
	"sync"
	"time"

	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/overlay"
	"github.com/rahul4469/crisis-analyzer/internal/sequence"
)

// StageStatus is a stage as the scenario page shows it.
type StageStatus struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Icon   string          `json:"icon"`
	Phase  string          `json:"phase"`
	Status sequence.Status `json:"status"`
}

// Snapshot is what the scenario page polls.
type Snapshot struct {
	ID        string                 `json:"id"`
	Kind      string                 `json:"kind"`
	Name      string                 `json:"name"`
	Title     string                 `json:"title"`
	Query     string                 `json:"query"`
	Location  string                 `json:"location"`
	Phase     string                 `json:"phase"`
	Stages    []StageStatus          `json:"stages"`
	ElapsedMS int64                  `json:"elapsed_ms"`
	Done      bool                   `json:"done"`
	Severity  string                 `json:"severity,omitempty"`
	Agents    []Agent                `json:"agents,omitempty"`
	Result    *models.AnalysisResult `json:"result,omitempty"`
	Step      int                    `json:"step"`
	Steps     int                    `json:"steps"`
	Map       *overlay.Request       `json:"map,omitempty"`
}

// Finished reports whether the walkthrough has been revealed.
func (s *Snapshot) Finished() bool {
	return s.Done
}

// Run plays one scenario back. Its state is a pure function of the time since
// it started, so it owns no timers.
type Run struct {
	ID        string
	Scenario  *Scenario
	plan      sequence.Plan
	startedAt time.Time

	mu   sync.Mutex
	step int
}

func NewRun(id string, s *Scenario, startedAt time.Time) *Run {
	return &Run{
		ID:        id,
		Scenario:  s,
		plan:      s.Plan(),
		startedAt: startedAt,
	}
}

func (r *Run) Snapshot(now time.Time) any {
	return r.State(now)
}

// State returns the run as seen at now. Agent answers appear once every
// stage has completed; the result and evacuation map once it is revealed.
func (r *Run) State(now time.Time) *Snapshot {
	st := r.plan.At(now.Sub(r.startedAt))
	s := r.Scenario

	snap := &Snapshot{
		ID:        r.ID,
		Kind:      "scenario",
		Name:      s.Name,
		Title:     s.Title,
		Query:     s.Query,
		Location:  s.Location,
		Phase:     s.Phase(st),
		Stages:    make([]StageStatus, len(s.Stages)),
		ElapsedMS: st.Elapsed.Milliseconds(),
		Done:      st.Revealed,
		Steps:     len(s.Result.EvacuationSteps),
	}
	for i, stage := range s.Stages {
		snap.Stages[i] = StageStatus{
			ID:     stage.ID,
			Name:   stage.Name,
			Icon:   stage.Icon,
			Phase:  stage.Phase,
			Status: st.Statuses[i],
		}
	}

	if st.Complete() {
		snap.Agents = s.Agents
		snap.Severity = s.Result.SeverityLabel()
	}
	if st.Revealed {
		snap.Result = &s.Result
		r.mu.Lock()
		snap.Step = r.step
		r.mu.Unlock()
		if req, err := s.StepOverlay(snap.Step); err == nil {
			snap.Map = &req
		}
	}
	return snap
}

// SetStep moves the evacuation walkthrough to step i. Steps are only
// navigable once the result is revealed.
func (r *Run) SetStep(now time.Time, i int) error {
	if !r.plan.At(now.Sub(r.startedAt)).Revealed {
		return fmt.Errorf("%w: walkthrough not revealed yet", models.ErrInvalidInput)
	}
	if n := len(r.Scenario.Result.EvacuationSteps); i < 0 || i >= n {
		return fmt.Errorf("%w: step %d of %d", models.ErrInvalidInput, i, n)
	}
	r.mu.Lock()
	r.step = i
	r.mu.Unlock()
	return nil
}

// Close releases nothing; runs hold no timers.
func (r *Run) Close() {}
