package workflow

import "testing"

type subject struct {
	status      Status
	responsible string
}

func (s subject) CurrentStatus() Status { return s.status }
func (s subject) Responsible() string   { return s.responsible }

func TestAvailableActions(t *testing.T) {
	const owner = "u-owner"
	const other = "u-other"

	tests := []struct {
		name   string
		status Status
		viewer string
		want   []Action
	}{
		{"owner on pending", StatusPending, owner, []Action{ActionRespond}},
		{"owner on returned", StatusReturned, owner, []Action{ActionRespond, ActionResubmit}},
		{"other on pending", StatusPending, other, nil},
		{"other on returned", StatusReturned, other, nil},
		{"other on submitted completed", StatusSubmittedCompleted, other, []Action{ActionValidate}},
		{"other on submitted blocked", StatusSubmittedBlocked, other, []Action{ActionValidate}},
		{"owner on submitted", StatusSubmittedCompleted, owner, nil},
		{"owner on approved", StatusApproved, owner, nil},
		{"other on approved", StatusApproved, other, nil},
		{"anonymous on pending", StatusPending, "", nil},
		{"anonymous on submitted", StatusSubmittedBlocked, "", nil},
		{"unrecognized status", Status("on_hold"), owner, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvailableActions(subject{status: tt.status, responsible: owner}, tt.viewer).List()
			if len(got) != len(tt.want) {
				t.Fatalf("AvailableActions() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("AvailableActions() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestAvailableActions_ApprovedIsAlwaysEmpty(t *testing.T) {
	for _, viewer := range []string{"", "u-owner", "u-other", "u-admin"} {
		actions := AvailableActions(subject{status: StatusApproved, responsible: "u-owner"}, viewer)
		if !actions.Empty() {
			t.Errorf("viewer %q got %v on approved item", viewer, actions.List())
		}
	}
}

func TestAvailableActions_RespondAndValidateAreExclusive(t *testing.T) {
	viewers := []string{"", "u-owner", "u-other"}
	for _, status := range append(Statuses(), Status("unknown")) {
		for _, viewer := range viewers {
			actions := AvailableActions(subject{status: status, responsible: "u-owner"}, viewer)
			if actions.Has(ActionRespond) && actions.Has(ActionValidate) {
				t.Errorf("status %s viewer %q has both respond and validate", status, viewer)
			}
			if actions.Has(ActionResubmit) && !actions.Has(ActionRespond) {
				t.Errorf("status %s viewer %q has resubmit without respond", status, viewer)
			}
		}
	}
}
