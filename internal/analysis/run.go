// Package analysis drives live analyses: one backend call per run, a staged
// agent animation derived from elapsed time, and a held reveal of the result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rahul4469/crisis-analyzer/internal/classify"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/sequence"
	"github.com/rahul4469/crisis-analyzer/internal/services"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultAgentStep  = 800 * time.Millisecond
	DefaultFinalDelay = time.Second

	// DefaultGeocodeTimeout bounds the map-center lookup that runs alongside
	// the backend call.
	DefaultGeocodeTimeout = 5 * time.Second
)

// Agents are the data-gathering agents shown while a live analysis runs.
var Agents = []sequence.Stage{
	{ID: "weather", Name: "Weather", Icon: "cloud"},
	{ID: "maps", Name: "Maps", Icon: "map"},
	{ID: "news", Name: "News", Icon: "newspaper"},
	{ID: "social", Name: "Social", Icon: "users"},
	{ID: "resource", Name: "Resource", Icon: "phone"},
}

// NewPlan returns the agent plan. Zero durations fall back to the defaults.
func NewPlan(step, finalDelay time.Duration) sequence.Plan {
	if step <= 0 {
		step = DefaultAgentStep
	}
	if finalDelay <= 0 {
		finalDelay = DefaultFinalDelay
	}
	return sequence.Plan{
		Stages:     Agents,
		Step:       step,
		FinalDelay: finalDelay,
	}
}

type Phase int

const (
	PhaseGathering Phase = iota
	PhaseProcessing
	PhaseComplete
	PhaseFailed
)

var phaseNames = [...]string{
	PhaseGathering:  "gathering",
	PhaseProcessing: "processing",
	PhaseComplete:   "complete",
	PhaseFailed:     "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

type AgentStatus struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Icon   string          `json:"icon"`
	Status sequence.Status `json:"status"`
}

// Snapshot is what the analysis page polls.
type Snapshot struct {
	ID            string                 `json:"id"`
	Kind          string                 `json:"kind"`
	Query         string                 `json:"query"`
	Location      string                 `json:"location"`
	EmergencyType models.EmergencyType   `json:"emergency_type"`
	Phase         Phase                  `json:"phase"`
	Agents        []AgentStatus          `json:"agents"`
	ElapsedMS     int64                  `json:"elapsed_ms"`
	Center        *models.Coordinates    `json:"center,omitempty"`
	Severity      string                 `json:"severity,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Result        *models.AnalysisResult `json:"result,omitempty"`
	Route         []models.Coordinates   `json:"route,omitempty"`
}

// Finished reports whether the snapshot is terminal.
func (s *Snapshot) Finished() bool {
	return s.Phase == PhaseComplete || s.Phase == PhaseFailed
}

// Options wires a Run to its collaborators.
type Options struct {
	Plan     sequence.Plan
	Analyzer services.Analyzer
	Recorder models.AnalysisRecorder
	Geocoder services.Geocoder
	Logger   *zap.Logger
	Now      func() time.Time

	// GeocodeTimeout defaults to DefaultGeocodeTimeout.
	GeocodeTimeout time.Duration
}

// Run is a single live analysis.
type Run struct {
	ID      string
	Request models.AnalysisRequest

	plan      sequence.Plan
	startedAt time.Time
	now       func() time.Time
	logger    *zap.Logger
	cancel    context.CancelFunc
	done      chan struct{}

	mu        sync.Mutex
	result    *models.AnalysisResult
	arrivedAt time.Time
	failedAt  time.Time
	failed    bool
	center    *models.Coordinates
}

// Start classifies the handoff text and launches the backend call. The
// returned Run owns a goroutine until the call returns or Close is called.
func Start(ctx context.Context, id string, h *models.Handoff, opts Options) *Run {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = models.NopRecorder{}
	}
	if len(opts.Plan.Stages) == 0 {
		opts.Plan = NewPlan(0, 0)
	}
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = DefaultGeocodeTimeout
	}

	// the run outlives the request that started it
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &Run{
		ID: id,
		Request: models.AnalysisRequest{
			Scenario:      h.Query,
			Location:      h.Location,
			EmergencyType: classify.Classify(h.Query),
		},
		plan:      opts.Plan,
		startedAt: opts.Now(),
		now:       opts.Now,
		logger:    opts.Logger.With(zap.String("run_id", id)),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go r.execute(ctx, opts)
	return r
}

func (r *Run) execute(ctx context.Context, opts Options) {
	defer close(r.done)

	r.logger.Info("analysis started",
		zap.String("emergency_type", r.Request.EmergencyType.String()),
		zap.String("location", r.Request.Location))

	// the map center is best effort and never holds up the backend call
	var g errgroup.Group
	defer g.Wait()
	if opts.Geocoder != nil {
		g.Go(func() error {
			r.geocode(ctx, opts.Geocoder, opts.GeocodeTimeout)
			return nil
		})
	}

	record, err := opts.Recorder.Create(ctx, r.ID, r.Request)
	if err != nil {
		r.logger.Warn("failed to record analysis", zap.Error(err))
	}

	result, err := opts.Analyzer.Analyze(ctx, r.Request)
	if err != nil {
		r.fail(err)
		if record != nil && !errors.Is(err, context.Canceled) {
			if rerr := opts.Recorder.Fail(context.WithoutCancel(ctx), record.ID, err.Error()); rerr != nil {
				r.logger.Warn("failed to record failure", zap.Error(rerr))
			}
		}
		return
	}

	r.mu.Lock()
	r.result = result
	r.arrivedAt = r.now()
	r.mu.Unlock()
	r.logger.Info("analysis received",
		zap.Bool("is_emergency", result.IsEmergency),
		zap.Duration("hold", r.plan.Duration()))

	if record != nil {
		if err := opts.Recorder.Complete(context.WithoutCancel(ctx), record.ID, result); err != nil {
			r.logger.Warn("failed to record result", zap.Error(err))
		}
	}
}

func (r *Run) geocode(ctx context.Context, geocoder services.Geocoder, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := geocoder.Geocode(ctx, r.Request.Location)
	if err != nil {
		r.logger.Warn("geocoding failed", zap.Error(err))
		return
	}
	r.mu.Lock()
	r.center = &c
	r.mu.Unlock()
}

func (r *Run) fail(err error) {
	r.mu.Lock()
	if r.failed {
		r.mu.Unlock()
		return
	}
	r.failed = true
	r.failedAt = r.now()
	r.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		r.logger.Debug("analysis cancelled")
		return
	}
	r.logger.Error("analysis failed", zap.Error(err))
}

// Snapshot reports the run as seen at now. The result is exposed only once
// the full animation duration has passed since it arrived.
func (r *Run) Snapshot(now time.Time) any {
	return r.snapshot(now)
}

func (r *Run) snapshot(now time.Time) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Snapshot{
		ID:            r.ID,
		Kind:          "live",
		Query:         r.Request.Scenario,
		Location:      r.Request.Location,
		EmergencyType: r.Request.EmergencyType,
		Center:        r.center,
	}

	elapsed := now.Sub(r.startedAt)
	switch {
	case r.failed:
		elapsed = r.failedAt.Sub(r.startedAt)
		s.Phase = PhaseFailed
		s.Error = services.FailureMessage
	case r.result != nil && !now.Before(r.arrivedAt.Add(r.plan.Duration())):
		s.Phase = PhaseComplete
		s.Result = r.result
		s.Route = r.result.Route()
		s.Severity = r.result.SeverityLabel()
	case r.plan.At(elapsed).Complete():
		s.Phase = PhaseProcessing
	default:
		s.Phase = PhaseGathering
	}

	st := r.plan.At(elapsed)
	s.ElapsedMS = elapsed.Milliseconds()
	s.Agents = make([]AgentStatus, len(r.plan.Stages))
	for i, stage := range r.plan.Stages {
		status := st.Statuses[i]
		if s.Phase == PhaseComplete {
			status = sequence.StatusComplete
		}
		s.Agents[i] = AgentStatus{ID: stage.ID, Name: stage.Name, Icon: stage.Icon, Status: status}
	}
	return s
}

// State returns the typed snapshot at now.
func (r *Run) State(now time.Time) *Snapshot {
	return r.snapshot(now)
}

// Close cancels the backend call and the geocode if they are still in
// flight. It blocks until the run goroutine has exited.
func (r *Run) Close() {
	r.cancel()
	<-r.done
}

// Done is closed once the backend call and the geocode have returned.
func (r *Run) Done() <-chan struct{} {
	return r.done
}
