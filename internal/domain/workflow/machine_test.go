package workflow

import (
	"context"
	"errors"
	"testing"
)

func responsibleCtx() context.Context {
	return WithActor(context.Background(), Actor{UserID: "u-resp", ResponsibleID: "u-resp"})
}

func validatorCtx() context.Context {
	return WithActor(context.Background(), Actor{UserID: "u-val", ResponsibleID: "u-resp"})
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusPending, false},
		{StatusSubmittedCompleted, false},
		{StatusSubmittedBlocked, false},
		{StatusReturned, false},
		{StatusApproved, true},
		{Status("archived"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("Status.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_Known(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"pending", StatusPending, true},
		{"approved", StatusApproved, true},
		{"legacy value", Status("in_progress"), false},
		{"upper case", Status("PENDING"), false},
		{"empty", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Known(); got != tt.expected {
				t.Errorf("Status.Known() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_UnrecognizedFallback(t *testing.T) {
	s := Status("waiting_for_parts")

	if got := s.Label(); got != "waiting_for_parts" {
		t.Errorf("Label() = %q, want raw value", got)
	}
	if got := s.Badge(); got != BadgeUnknown {
		t.Errorf("Badge() = %v, want %v", got, BadgeUnknown)
	}
	if got := s.Owner(); got != OwnerUnknown {
		t.Errorf("Owner() = %v, want %v", got, OwnerUnknown)
	}
}

func TestStatus_Owner(t *testing.T) {
	tests := []struct {
		status Status
		owner  Owner
	}{
		{StatusPending, OwnerResponsible},
		{StatusReturned, OwnerResponsible},
		{StatusSubmittedCompleted, OwnerValidator},
		{StatusSubmittedBlocked, OwnerValidator},
		{StatusApproved, OwnerClosed},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Owner(); got != tt.owner {
				t.Errorf("Owner() = %v, want %v", got, tt.owner)
			}
		})
	}
}

func TestOutcome_Trigger(t *testing.T) {
	if tr, ok := OutcomeCompleted.Trigger(); !ok || tr != TriggerSubmitCompleted {
		t.Errorf("completed -> %v, %v", tr, ok)
	}
	if tr, ok := OutcomeBlocked.Trigger(); !ok || tr != TriggerSubmitBlocked {
		t.Errorf("blocked -> %v, %v", tr, ok)
	}
	if _, ok := Outcome("partial").Trigger(); ok {
		t.Error("unknown outcome should not map to a trigger")
	}
}

func TestBuilder_ConfigurePanicsOnUnknownStatus(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on unknown status")
		}
	}()

	NewBuilder().Configure(Status("INVALID"))
}

func TestBuilder_PermitPanicsOnUnknownTarget(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on unknown target status")
		}
	}()

	NewBuilder().Configure(StatusPending).Permit(TriggerSubmitCompleted, Status("INVALID"))
}

func TestBuilder_BuildAcceptsUnrecognizedStatus(t *testing.T) {
	machine := NewDefinition().Build(Status("legacy_status"))

	if machine.State() != Status("legacy_status") {
		t.Errorf("State() = %v, want raw value", machine.State())
	}

	err := machine.Fire(responsibleCtx(), TriggerSubmitCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}

	if triggers := machine.PermittedTriggers(responsibleCtx()); len(triggers) != 0 {
		t.Errorf("PermittedTriggers() = %v, want none", triggers)
	}
}

func TestDefinition_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		trigger Trigger
		ctx     context.Context
		want    Status
	}{
		{"pending completed", StatusPending, TriggerSubmitCompleted, responsibleCtx(), StatusSubmittedCompleted},
		{"pending blocked", StatusPending, TriggerSubmitBlocked, responsibleCtx(), StatusSubmittedBlocked},
		{"returned resubmit completed", StatusReturned, TriggerSubmitCompleted, responsibleCtx(), StatusSubmittedCompleted},
		{"returned resubmit blocked", StatusReturned, TriggerSubmitBlocked, responsibleCtx(), StatusSubmittedBlocked},
		{"approve completed", StatusSubmittedCompleted, TriggerApprove, validatorCtx(), StatusApproved},
		{"return completed", StatusSubmittedCompleted, TriggerReturn, validatorCtx(), StatusReturned},
		{"approve blocked", StatusSubmittedBlocked, TriggerApprove, validatorCtx(), StatusApproved},
		{"return blocked", StatusSubmittedBlocked, TriggerReturn, validatorCtx(), StatusReturned},
	}

	definition := NewDefinition()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := definition.Build(tt.from)
			if err := machine.Fire(tt.ctx, tt.trigger); err != nil {
				t.Fatalf("Fire(%v) failed: %v", tt.trigger, err)
			}
			if machine.State() != tt.want {
				t.Errorf("State() = %v, want %v", machine.State(), tt.want)
			}
		})
	}
}

func TestDefinition_GuardFailures(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		trigger Trigger
		ctx     context.Context
	}{
		{"validator cannot submit", StatusPending, TriggerSubmitCompleted, validatorCtx()},
		{"responsible cannot approve own item", StatusSubmittedCompleted, TriggerApprove, responsibleCtx()},
		{"responsible cannot return own item", StatusSubmittedBlocked, TriggerReturn, responsibleCtx()},
		{"anonymous cannot submit", StatusPending, TriggerSubmitBlocked, context.Background()},
	}

	definition := NewDefinition()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := definition.Build(tt.from)
			err := machine.Fire(tt.ctx, tt.trigger)
			if !errors.Is(err, ErrGuardFailed) {
				t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
			}
			if machine.State() != tt.from {
				t.Errorf("State should remain %v after failed Fire(), got %v", tt.from, machine.State())
			}
		})
	}
}

func TestDefinition_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		trigger Trigger
	}{
		{"approve pending", StatusPending, TriggerApprove},
		{"return returned", StatusReturned, TriggerReturn},
		{"resubmit submitted", StatusSubmittedCompleted, TriggerSubmitBlocked},
		{"approve approved", StatusApproved, TriggerApprove},
		{"submit approved", StatusApproved, TriggerSubmitCompleted},
	}

	definition := NewDefinition()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := definition.Build(tt.from)
			err := machine.Fire(validatorCtx(), tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
			}
		})
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	machine := NewDefinition().Build(StatusSubmittedBlocked)

	tests := []struct {
		name     string
		ctx      context.Context
		trigger  Trigger
		expected bool
	}{
		{"validator approve", validatorCtx(), TriggerApprove, true},
		{"validator return", validatorCtx(), TriggerReturn, true},
		{"responsible approve", responsibleCtx(), TriggerApprove, false},
		{"validator submit", validatorCtx(), TriggerSubmitCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := machine.CanFire(tt.ctx, tt.trigger); got != tt.expected {
				t.Errorf("CanFire() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	machine := NewDefinition().Build(StatusPending)

	triggers := machine.PermittedTriggers(responsibleCtx())
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}
	if triggers[0] != TriggerSubmitBlocked || triggers[1] != TriggerSubmitCompleted {
		t.Errorf("PermittedTriggers() = %v, want sorted submit triggers", triggers)
	}

	if got := machine.PermittedTriggers(validatorCtx()); len(got) != 0 {
		t.Errorf("validator PermittedTriggers() = %v, want none", got)
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	definition := NewDefinition()

	machine1 := definition.Build(StatusPending)
	machine2 := definition.Build(StatusPending)

	if err := machine1.Fire(responsibleCtx(), TriggerSubmitCompleted); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}

	if machine2.State() != StatusPending {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StatusPending)
	}
}

func TestStateMachine_ReturnAndResubmitCycle(t *testing.T) {
	machine := NewDefinition().Build(StatusPending)

	steps := []struct {
		ctx     context.Context
		trigger Trigger
		want    Status
	}{
		{responsibleCtx(), TriggerSubmitBlocked, StatusSubmittedBlocked},
		{validatorCtx(), TriggerReturn, StatusReturned},
		{responsibleCtx(), TriggerSubmitCompleted, StatusSubmittedCompleted},
		{validatorCtx(), TriggerApprove, StatusApproved},
	}

	for i, step := range steps {
		if err := machine.Fire(step.ctx, step.trigger); err != nil {
			t.Fatalf("Step %d: Fire(%v) failed: %v", i, step.trigger, err)
		}
		if machine.State() != step.want {
			t.Errorf("Step %d: State() = %v, want %v", i, machine.State(), step.want)
		}
	}

	if !machine.State().IsTerminal() {
		t.Error("Final state should be terminal")
	}
	if triggers := machine.PermittedTriggers(validatorCtx()); len(triggers) != 0 {
		t.Errorf("Terminal state should have 0 permitted triggers, got %d", len(triggers))
	}
}
