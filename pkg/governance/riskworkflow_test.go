package governance

import "testing"

func draftAssessment() *RiskAssessmentRecord {
	return &RiskAssessmentRecord{
		ID:         "ra-1",
		AISystemID: "sys-1",
		Category:   "bias",
		RiskLevel:  string(RiskMedium),
		Status:     string(AssessmentDraft),
		AssessedBy: "alice",
	}
}

func TestRiskWorkflow_Submit(t *testing.T) {
	w := NewRiskWorkflow()

	tests := []struct {
		name    string
		mutate  func(*RiskAssessmentRecord)
		actor   string
		errCode string
	}{
		{"creator submits draft", nil, "alice", ""},
		{"non-creator rejected", nil, "bob", CodeNotCreator},
		{
			"high risk without evidence rejected",
			func(a *RiskAssessmentRecord) { a.RiskLevel = string(RiskHigh) },
			"alice", CodeHighRiskNeedsEvidence,
		},
		{
			"high risk with evidence accepted",
			func(a *RiskAssessmentRecord) {
				a.RiskLevel = string(RiskHigh)
				a.EvidenceLinks = JSONStringSlice{"https://evidence.example.com/1"}
			},
			"alice", "",
		},
		{
			"already submitted is locked",
			func(a *RiskAssessmentRecord) { a.Status = string(AssessmentSubmitted) },
			"alice", CodeAssessmentLocked,
		},
		{
			"approved is locked",
			func(a *RiskAssessmentRecord) { a.Status = string(AssessmentApproved) },
			"alice", CodeAssessmentLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := draftAssessment()
			if tt.mutate != nil {
				tt.mutate(a)
			}
			err := w.Submit(a, tt.actor)
			if tt.errCode == "" {
				if err != nil {
					t.Fatalf("Submit() error = %v, want nil", err)
				}
				if a.Status != string(AssessmentSubmitted) {
					t.Errorf("status = %s, want submitted", a.Status)
				}
				return
			}
			if err == nil {
				t.Fatal("Submit() error = nil, want error")
			}
			if err.Code != tt.errCode {
				t.Errorf("code = %s, want %s", err.Code, tt.errCode)
			}
		})
	}
}

func TestRiskWorkflow_ApproveAndReject(t *testing.T) {
	w := NewRiskWorkflow()

	t.Run("approve submitted", func(t *testing.T) {
		a := draftAssessment()
		a.Status = string(AssessmentSubmitted)
		if err := w.Approve(a, "bob", "looks complete"); err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if a.Status != string(AssessmentApproved) {
			t.Errorf("status = %s, want approved", a.Status)
		}
		if a.ReviewedBy != "bob" || a.ReviewedAt == nil {
			t.Errorf("reviewer fields not recorded: %+v", a)
		}
	})

	t.Run("approve draft denied", func(t *testing.T) {
		a := draftAssessment()
		err := w.Approve(a, "bob", "")
		if err == nil || err.Code != CodeNotSubmitted {
			t.Errorf("Approve(draft) = %v, want %s", err, CodeNotSubmitted)
		}
	})

	t.Run("reject requires comment", func(t *testing.T) {
		a := draftAssessment()
		a.Status = string(AssessmentSubmitted)
		err := w.Reject(a, "bob", "")
		if err == nil || err.Code != CodeCommentRequired {
			t.Errorf("Reject(no comment) = %v, want %s", err, CodeCommentRequired)
		}
		if a.Status != string(AssessmentSubmitted) {
			t.Errorf("status = %s, record must not change on a denied reject", a.Status)
		}
	})

	t.Run("reject with comment", func(t *testing.T) {
		a := draftAssessment()
		a.Status = string(AssessmentSubmitted)
		if err := w.Reject(a, "bob", "missing evidence for the bias category"); err != nil {
			t.Fatalf("Reject() error = %v", err)
		}
		if a.Status != string(AssessmentRejected) {
			t.Errorf("status = %s, want rejected", a.Status)
		}
		if a.ReviewComment == "" {
			t.Error("review comment not recorded")
		}
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		a := draftAssessment()
		a.Status = string(AssessmentRejected)
		if err := w.Approve(a, "bob", ""); err == nil || err.Code != CodeNotSubmitted {
			t.Errorf("Approve(rejected) = %v, want %s", err, CodeNotSubmitted)
		}
	})
}

func TestRiskWorkflow_ContentLockedAfterDraft(t *testing.T) {
	w := NewRiskWorkflow()
	summary := "updated summary"

	for _, status := range []AssessmentStatus{AssessmentSubmitted, AssessmentApproved, AssessmentRejected} {
		a := draftAssessment()
		a.Status = string(status)
		err := w.ApplyUpdate(a, AssessmentUpdate{Summary: &summary})
		if err == nil || err.Code != CodeAssessmentLocked {
			t.Errorf("ApplyUpdate(%s) = %v, want %s", status, err, CodeAssessmentLocked)
		}
	}

	a := draftAssessment()
	if err := w.ApplyUpdate(a, AssessmentUpdate{Summary: &summary}); err != nil {
		t.Fatalf("ApplyUpdate(draft) error = %v", err)
	}
	if a.Summary != summary {
		t.Errorf("summary = %q, want %q", a.Summary, summary)
	}
}

func TestRiskWorkflow_MitigationCarveOut(t *testing.T) {
	w := NewRiskWorkflow()

	tests := []struct {
		status  AssessmentStatus
		allowed bool
	}{
		{AssessmentDraft, true},
		{AssessmentSubmitted, true},
		{AssessmentApproved, true},
		{AssessmentRejected, false},
	}

	for _, tt := range tests {
		a := draftAssessment()
		a.Status = string(tt.status)
		err := w.CanUpdateMitigation(a)
		if tt.allowed && err != nil {
			t.Errorf("CanUpdateMitigation(%s) = %v, want nil", tt.status, err)
		}
		if !tt.allowed && (err == nil || err.Code != CodeAssessmentLocked) {
			t.Errorf("CanUpdateMitigation(%s) = %v, want %s", tt.status, err, CodeAssessmentLocked)
		}
	}
}

func TestOverallRiskLevel(t *testing.T) {
	tests := []struct {
		name        string
		assessments []RiskAssessmentRecord
		want        RiskLevel
	}{
		{"no assessments", nil, ""},
		{
			"draft high risk excluded",
			[]RiskAssessmentRecord{
				{Status: string(AssessmentDraft), RiskLevel: string(RiskHigh)},
				{Status: string(AssessmentApproved), RiskLevel: string(RiskLow)},
			},
			RiskLow,
		},
		{
			"rejected high risk excluded",
			[]RiskAssessmentRecord{
				{Status: string(AssessmentRejected), RiskLevel: string(RiskHigh)},
				{Status: string(AssessmentApproved), RiskLevel: string(RiskMedium)},
			},
			RiskMedium,
		},
		{
			"maximum over approved",
			[]RiskAssessmentRecord{
				{Status: string(AssessmentApproved), RiskLevel: string(RiskLow)},
				{Status: string(AssessmentApproved), RiskLevel: string(RiskHigh)},
				{Status: string(AssessmentApproved), RiskLevel: string(RiskMedium)},
			},
			RiskHigh,
		},
		{
			"only drafts yields empty",
			[]RiskAssessmentRecord{{Status: string(AssessmentDraft), RiskLevel: string(RiskHigh)}},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallRiskLevel(tt.assessments); got != tt.want {
				t.Errorf("OverallRiskLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}
