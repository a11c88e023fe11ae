package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc is a function that evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given status
	Configure(status Status) StateConfiguration

	// Build creates a new state machine instance positioned at the given status
	Build(current Status) StateMachine
}

// StateConfiguration configures transitions for a specific status
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target status
	Permit(trigger Trigger, to Status) StateConfiguration

	// PermitIf allows a trigger to transition to the target status if the guard passes
	PermitIf(trigger Trigger, to Status, guard GuardFunc) StateConfiguration
}

type transition struct {
	to    Status
	guard GuardFunc
}

func (t transition) allowed(ctx context.Context) bool {
	return t.guard == nil || t.guard(ctx)
}

type stateConfig struct {
	from        Status
	transitions map[Trigger][]transition
}

type stateMachineBuilder struct {
	configurations map[Status]*stateConfig
}

type stateMachine struct {
	current        Status
	configurations map[Status]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[Status]*stateConfig),
	}
}

// Configure panics on unknown statuses: the transition table is code, not data.
func (b *stateMachineBuilder) Configure(status Status) StateConfiguration {
	if !status.Known() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}

	config, exists := b.configurations[status]
	if !exists {
		config = &stateConfig{
			from:        status,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[status] = config
	}

	return config
}

// Build never panics. The current status comes from the store and may be
// unrecognized, in which case the machine simply has no transitions.
func (b *stateMachineBuilder) Build(current Status) StateMachine {
	configsCopy := make(map[Status]*stateConfig, len(b.configurations))
	for status, config := range b.configurations {
		transitionsCopy := make(map[Trigger][]transition, len(config.transitions))
		for trigger, transitions := range config.transitions {
			transitionsCopy[trigger] = append([]transition{}, transitions...)
		}
		configsCopy[status] = &stateConfig{
			from:        status,
			transitions: transitionsCopy,
		}
	}

	return &stateMachine{
		current:        current,
		configurations: configsCopy,
	}
}

// Permit allows a trigger to transition to the target status
func (c *stateConfig) Permit(trigger Trigger, to Status) StateConfiguration {
	return c.PermitIf(trigger, to, nil)
}

// PermitIf allows a trigger to transition to the target status if the guard passes
func (c *stateConfig) PermitIf(trigger Trigger, to Status, guard GuardFunc) StateConfiguration {
	if !to.Known() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition{
		to:    to,
		guard: guard,
	})

	return c
}

// State returns the current status
func (m *stateMachine) State() Status {
	return m.current
}

// CanFire returns true if the trigger is configured and at least one guard passes
func (m *stateMachine) CanFire(ctx context.Context, trigger Trigger) bool {
	config, exists := m.configurations[m.current]
	if !exists {
		return false
	}

	for _, t := range config.transitions[trigger] {
		if t.allowed(ctx) {
			return true
		}
	}
	return false
}

// Fire attempts to execute the trigger, transitioning to the new status if allowed
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	config, exists := m.configurations[m.current]
	if !exists {
		return fmt.Errorf("%w: cannot fire trigger %s from status %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: cannot fire trigger %s from status %s", ErrInvalidTransition, trigger, m.current)
	}

	// First permitted transition wins
	for _, t := range transitions {
		if t.allowed(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from status %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns the triggers whose guards pass, sorted by name
func (m *stateMachine) PermittedTriggers(ctx context.Context) []Trigger {
	config, exists := m.configurations[m.current]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger, transitions := range config.transitions {
		for _, t := range transitions {
			if t.allowed(ctx) {
				triggers = append(triggers, trigger)
				break
			}
		}
	}

	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
