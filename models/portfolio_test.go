package models

import "testing"

func TestPortfolioStatusPredicates(t *testing.T) {
	tests := []struct {
		status      PortfolioStatus
		editable    bool
		deletable   bool
		submittable bool
		assignable  bool
	}{
		{PortfolioDraft, true, true, true, false},
		{PortfolioSubmitted, false, false, false, true},
		{PortfolioUnderReview, false, false, false, true},
		{PortfolioEvaluated, false, false, false, true},
		{PortfolioRevisionRequested, true, false, true, false},
		{PortfolioApproved, false, false, false, false},
		{PortfolioRejected, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			p := Portfolio{Status: tt.status}
			if got := p.CanBeEdited(); got != tt.editable {
				t.Errorf("CanBeEdited() = %v, want %v", got, tt.editable)
			}
			if got := p.CanBeDeleted(); got != tt.deletable {
				t.Errorf("CanBeDeleted() = %v, want %v", got, tt.deletable)
			}
			if got := p.CanBeSubmitted(); got != tt.submittable {
				t.Errorf("CanBeSubmitted() = %v, want %v", got, tt.submittable)
			}
			if got := tt.status.CanReceiveAssignment(); got != tt.assignable {
				t.Errorf("CanReceiveAssignment() = %v, want %v", got, tt.assignable)
			}
		})
	}
}

func TestAdminTargets(t *testing.T) {
	allowed := map[PortfolioStatus]bool{
		PortfolioUnderReview:       true,
		PortfolioRevisionRequested: true,
		PortfolioApproved:          true,
		PortfolioRejected:          true,
	}
	for _, s := range AllPortfolioStatuses {
		if s.IsAdminTarget() != allowed[s] {
			t.Errorf("IsAdminTarget(%s) = %v", s, s.IsAdminTarget())
		}
	}
}

func TestScorePercentage(t *testing.T) {
	tests := []struct {
		total, max, want float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{10, 10, 100},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{17, 20, 85},
	}
	for _, tt := range tests {
		if got := ScorePercentage(tt.total, tt.max); got != tt.want {
			t.Errorf("ScorePercentage(%v, %v) = %v, want %v", tt.total, tt.max, got, tt.want)
		}
	}
}

func TestRubricCriteriaClamp(t *testing.T) {
	rc := RubricCriteria{MaxScore: 10}
	if got := rc.Clamp(50); got != 10 {
		t.Errorf("Clamp(50) = %d, want 10", got)
	}
	if got := rc.Clamp(7); got != 7 {
		t.Errorf("Clamp(7) = %d, want 7", got)
	}
}

func TestRoleHelpers(t *testing.T) {
	if !RoleAdmin.IsAdministrative() || !RoleSuperAdmin.IsAdministrative() {
		t.Fatal("admin roles should be administrative")
	}
	if RoleEvaluator.IsAdministrative() || RoleApplicant.IsAdministrative() {
		t.Fatal("non-admin roles should not be administrative")
	}
	if Role("guest").Valid() {
		t.Fatal("unknown role reported as valid")
	}
}
