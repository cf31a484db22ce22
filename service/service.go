// Package service is the boundary between transports and the simulator: wire
// net in, wire net out, with mapping, logging and step observation handled in
// one place so HTTP and AMQP stay thin.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/patsnet/petri"
	"github.com/patsnet/petri/dto"
	"github.com/patsnet/petri/sim"
)

// StepEvent describes one completed engine call for observers: which
// transitions fired (in order), which are paused in conflict, and the
// resulting marking.
type StepEvent struct {
	Title    string
	Fired    []string
	Conflict []string
	Marking  map[string]int
}

// Observer receives step events after each successful engine call. Observers
// are best-effort; failures are logged and never fail the call.
type Observer interface {
	ObserveStep(ctx context.Context, ev StepEvent) error
}

// Engine exposes the two public operations on wire nets.
type Engine struct {
	sim       *sim.Simulator
	logger    *zap.Logger
	observers []Observer
}

type Option func(*Engine)

// WithSimulator replaces the default simulator, e.g. to inject a randomness
// source or flip the capacity policy.
func WithSimulator(s *sim.Simulator) Option {
	return func(e *Engine) { e.sim = s }
}

// WithObserver registers an observer for step events.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

func New(logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		sim:    sim.New(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessStep runs one simulation step on the wire net and returns the
// resulting state. The input is never mutated.
func (e *Engine) ProcessStep(ctx context.Context, d *dto.PetriNet) (*dto.PetriNet, error) {
	net, err := dto.ToNet(d)
	if err != nil {
		return nil, err
	}
	outcome, err := e.sim.ProcessStep(net, d.DeterministicMode)
	if err != nil {
		e.logger.Error("process step failed", zap.Error(err))
		return nil, err
	}
	e.observe(ctx, d.Title, outcome, net)
	return dto.FromNet(net, d), nil
}

// ResolveConflict fires the user-selected transition of a paused net, then
// re-evaluates and applies the mode policy again.
func (e *Engine) ResolveConflict(ctx context.Context, req *dto.ResolveRequest) (*dto.PetriNet, error) {
	net, err := dto.ToNet(&req.PetriNet)
	if err != nil {
		return nil, err
	}
	outcome, err := e.sim.ResolveConflict(net, req.SelectedTransitionID, req.DeterministicMode)
	if err != nil {
		if petri.IsStructural(err) {
			return nil, err
		}
		e.logger.Error("resolve conflict failed",
			zap.String("selected", req.SelectedTransitionID),
			zap.Error(err))
		return nil, err
	}
	e.observe(ctx, req.Title, outcome, net)
	return dto.FromNet(net, &req.PetriNet), nil
}

// Validate runs the mapper checks without simulating.
func (e *Engine) Validate(d *dto.PetriNet) error {
	_, err := dto.ToNet(d)
	return err
}

func (e *Engine) observe(ctx context.Context, title string, outcome *sim.Outcome, net *petri.Net) {
	ev := StepEvent{
		Title:   title,
		Marking: net.Marking(),
	}
	for _, t := range outcome.Fired {
		ev.Fired = append(ev.Fired, t.ID)
	}
	for _, t := range outcome.Conflict {
		ev.Conflict = append(ev.Conflict, t.ID)
	}
	if outcome.Paused() {
		e.logger.Info("step paused on conflict", zap.Strings("enabled", ev.Conflict))
	} else if len(ev.Fired) > 0 {
		e.logger.Info("fired", zap.Strings("transitions", ev.Fired))
	} else {
		e.logger.Debug("no transitions enabled")
	}
	for _, o := range e.observers {
		if err := o.ObserveStep(ctx, ev); err != nil {
			e.logger.Error("step observer failed", zap.Error(err))
		}
	}
}
