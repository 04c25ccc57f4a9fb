// Package scenario holds the two canned walkthroughs (a real emergency and a
// false alarm) and plays them back as time-driven runs.
package scenario

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/overlay"
	"github.com/rahul4469/crisis-analyzer/internal/sequence"
	"gopkg.in/yaml.v3"
)

const (
	RealEmergency = "real-emergency"
	FalseAlarm    = "false-alarm"

	proceduresFile = "procedures.yaml"
)

var ErrScenarioNotFound = errors.New("scenario not found")

//go:embed data/*.yaml
var dataFS embed.FS

// Stage is a sequence stage tagged with the page phase it belongs to.
type Stage struct {
	sequence.Stage `yaml:",inline"`
	Phase          string `yaml:"phase"`
}

// Agent is what one data-gathering agent was asked and answered.
type Agent struct {
	ID    string `yaml:"id" json:"id"`
	Query string `yaml:"query" json:"query"`
	Data  string `yaml:"data" json:"data"`
}

type hazard struct {
	Lat    float64 `yaml:"lat"`
	Lng    float64 `yaml:"lng"`
	Radius float64 `yaml:"radius"`
}

// Scenario is one canned walkthrough.
type Scenario struct {
	Name         string                `yaml:"name"`
	Title        string                `yaml:"title"`
	Query        string                `yaml:"query"`
	Location     string                `yaml:"location"`
	Stages       []Stage               `yaml:"stages"`
	FinalDelay   time.Duration         `yaml:"final_delay"`
	SettledPhase string                `yaml:"settled_phase"`
	RevealPhase  string                `yaml:"reveal_phase"`
	Agents       []Agent               `yaml:"agents"`
	Hazard       *hazard               `yaml:"hazard"`
	Result       models.AnalysisResult `yaml:"result"`
}

// Plan is the staged reveal of the scenario.
func (s *Scenario) Plan() sequence.Plan {
	stages := make([]sequence.Stage, len(s.Stages))
	for i, st := range s.Stages {
		stages[i] = st.Stage
	}
	return sequence.Plan{Stages: stages, FinalDelay: s.FinalDelay}
}

// Phase names the page phase for st.
func (s *Scenario) Phase(st sequence.State) string {
	switch {
	case st.Revealed:
		return s.RevealPhase
	case st.Complete():
		return s.SettledPhase
	default:
		return s.Stages[st.Current].Phase
	}
}

// StepOverlay is the map for evacuation step i: centered on the step, with
// the hazard and the full route to the shelter.
func (s *Scenario) StepOverlay(i int) (overlay.Request, error) {
	steps := s.Result.EvacuationSteps
	if i < 0 || i >= len(steps) {
		return overlay.Request{}, fmt.Errorf("%w: step %d of %d", models.ErrInvalidInput, i, len(steps))
	}
	step := steps[i]
	req := overlay.Request{
		Center: step.Coordinates,
		Zoom:   step.Zoom,
		Title:  step.Title,
		Route:  s.Result.Route(),
	}
	if req.Zoom == 0 {
		req.Zoom = overlay.DefaultZoom
	}
	if s.Hazard != nil {
		req.Hazard = &overlay.Hazard{
			Center:       models.Coordinates{Lat: s.Hazard.Lat, Lng: s.Hazard.Lng},
			RadiusMeters: s.Hazard.Radius,
		}
	}
	return req, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return errors.New("missing name")
	}
	if len(s.Stages) == 0 {
		return fmt.Errorf("%s: no stages", s.Name)
	}
	if s.RevealPhase == "" || s.SettledPhase == "" {
		return fmt.Errorf("%s: missing settled or reveal phase", s.Name)
	}
	for i, st := range s.Stages {
		if st.ID == "" || st.Phase == "" || st.Delay <= 0 {
			return fmt.Errorf("%s: stage %d needs id, phase and delay", s.Name, i)
		}
	}
	for i, step := range s.Result.EvacuationSteps {
		if step.Step != i+1 {
			return fmt.Errorf("%s: evacuation step %d is numbered %d", s.Name, i+1, step.Step)
		}
	}
	return nil
}

// fill derives the data sources from the agents when the dataset omits them.
func (s *Scenario) fill() {
	if len(s.Result.DataSources) > 0 {
		return
	}
	names := make(map[string]string, len(s.Stages))
	for _, st := range s.Stages {
		names[st.ID] = st.Name
	}
	for _, a := range s.Agents {
		source := names[a.ID]
		if source == "" {
			source = a.ID
		}
		s.Result.DataSources = append(s.Result.DataSources, models.DataSource{
			Source:   source,
			Query:    a.Query,
			Response: a.Data,
		})
	}
}

// Catalog is the set of loaded scenarios plus the per-type procedures.
type Catalog struct {
	scenarios  map[string]*Scenario
	procedures map[string]string
}

// Load parses the embedded datasets.
func Load() (*Catalog, error) {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		return nil, fmt.Errorf("open scenario data: %w", err)
	}
	return LoadFS(sub)
}

func LoadFS(fsys fs.FS) (*Catalog, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list scenario data: %w", err)
	}

	c := &Catalog{
		scenarios:  make(map[string]*Scenario),
		procedures: make(map[string]string),
	}
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}

		if path.Base(file) == proceduresFile {
			if err := yaml.Unmarshal(raw, &c.procedures); err != nil {
				return nil, fmt.Errorf("parse %s: %w", file, err)
			}
			continue
		}

		var s Scenario
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("invalid scenario %s: %w", file, err)
		}
		if _, dup := c.scenarios[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", s.Name)
		}
		s.fill()
		c.scenarios[s.Name] = &s
	}
	return c, nil
}

// MustLoad is Load for program start-up.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Get(name string) (*Scenario, error) {
	s, ok := c.scenarios[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
	}
	return s, nil
}

// Names lists the scenarios in name order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.scenarios))
	for name := range c.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Procedures returns the emergency procedures for kind.
func (c *Catalog) Procedures(kind models.EmergencyType) string {
	if p, ok := c.procedures[kind.String()]; ok {
		return p
	}
	return c.procedures[models.EmergencyNone.String()]
}
