// Package sequence models a staged reveal: an ordered list of stages that
// finish one after another on a fixed cadence, optionally followed by a
// final reveal. State is a pure function of elapsed time; Runner drives a
// plan on real timers for callers that want callbacks.
package sequence

import (
	"fmt"
	"time"
)

type Status int

const (
	StatusPending Status = iota
	StatusLoading
	StatusComplete
)

var statusNames = [...]string{
	StatusPending:  "pending",
	StatusLoading:  "loading",
	StatusComplete: "complete",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if string(b) == name {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Stage is one labelled step. A non-zero Delay overrides Plan.Step.
type Stage struct {
	ID    string        `json:"id" yaml:"id"`
	Name  string        `json:"name" yaml:"name"`
	Icon  string        `json:"icon" yaml:"icon"`
	Delay time.Duration `json:"-" yaml:"delay"`
}

type Plan struct {
	Stages     []Stage
	Step       time.Duration
	FinalDelay time.Duration
}

func (p Plan) delay(i int) time.Duration {
	if d := p.Stages[i].Delay; d > 0 {
		return d
	}
	return p.Step
}

// StagesDuration is the time at which the last stage completes.
func (p Plan) StagesDuration() time.Duration {
	var total time.Duration
	for i := range p.Stages {
		total += p.delay(i)
	}
	return total
}

// Duration is the full length of the plan including the final delay.
func (p Plan) Duration() time.Duration {
	return p.StagesDuration() + p.FinalDelay
}

// Boundaries lists the elapsed times at which the state changes: the start,
// each stage completion and the reveal. Coincident times are reported once.
func (p Plan) Boundaries() []time.Duration {
	out := []time.Duration{0}
	var at time.Duration
	for i := range p.Stages {
		at += p.delay(i)
		if at != out[len(out)-1] {
			out = append(out, at)
		}
	}
	if reveal := at + p.FinalDelay; reveal != out[len(out)-1] {
		out = append(out, reveal)
	}
	return out
}

// State is a snapshot of a plan at some elapsed time.
type State struct {
	Elapsed  time.Duration `json:"elapsed"`
	Statuses []Status      `json:"statuses"`
	// Current is the index of the loading stage, len(Statuses) once all
	// stages are complete.
	Current  int  `json:"current"`
	Revealed bool `json:"revealed"`
}

// At computes the state of p after elapsed. Stage i is complete once the
// sum of delays up to and including i has elapsed.
func (p Plan) At(elapsed time.Duration) State {
	if elapsed < 0 {
		elapsed = 0
	}
	s := State{
		Elapsed:  elapsed,
		Statuses: make([]Status, len(p.Stages)),
	}

	var boundary time.Duration
	for i := range p.Stages {
		boundary += p.delay(i)
		if elapsed < boundary {
			break
		}
		s.Statuses[i] = StatusComplete
		s.Current = i + 1
	}
	if s.Current < len(s.Statuses) {
		s.Statuses[s.Current] = StatusLoading
	}
	s.Revealed = s.Current == len(p.Stages) && elapsed >= boundary+p.FinalDelay
	return s
}

// Advance moves s forward by dt under plan p.
func (s State) Advance(p Plan, dt time.Duration) State {
	return p.At(s.Elapsed + dt)
}

// Complete reports whether every stage has completed.
func (s State) Complete() bool {
	return s.Current >= len(s.Statuses)
}

// Completed counts finished stages.
func (s State) Completed() int {
	return s.Current
}
