package tools

import (
	"strings"
	"testing"
	"time"

	"byteme-assistant-be/pkg/store"
)

func fixedHROps() *HROperations {
	t := NewHROperations()
	t.now = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }
	t.newID = func() string { return "7C01EE" }
	return t
}

func applyLeaveIntent(params map[string]string) store.ActionIntent {
	return store.ActionIntent{Tool: store.DomainHR, Action: ActionLeaveApplication, Parameters: params}
}

func TestApplyLeaveSuccess(t *testing.T) {
	hr := fixedHROps()
	out, err := hr.Invoke(applyLeaveIntent(map[string]string{
		"start_date": "2026-01-20",
		"end_date":   "2026-01-25",
	}))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	for _, want := range []string{"LV202601057C01EE", "Days: 6", "Pending Approval", "annual"} {
		if !strings.Contains(out, want) {
			t.Errorf("leave confirmation missing %q:\n%s", want, out)
		}
	}
}

func TestApplyLeaveNoticeRule(t *testing.T) {
	hr := fixedHROps() // now = 2026-01-05

	tests := []struct {
		name       string
		start, end string
		wantNotice bool
	}{
		// 6 days starting in 15 days: allowed.
		{"long leave with notice", "2026-01-20", "2026-01-25", false},
		// 6 days starting in 5 days: requires 2 weeks notice.
		{"long leave short notice", "2026-01-10", "2026-01-15", true},
		// 5 days at short notice: under the long-leave threshold, allowed.
		{"short leave short notice", "2026-01-10", "2026-01-14", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := hr.Invoke(applyLeaveIntent(map[string]string{
				"start_date": tt.start,
				"end_date":   tt.end,
			}))
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			gotNotice := strings.Contains(out, "2 weeks notice")
			if gotNotice != tt.wantNotice {
				t.Errorf("notice rule = %v, want %v:\n%s", gotNotice, tt.wantNotice, out)
			}
		})
	}
}

func TestApplyLeaveValidation(t *testing.T) {
	hr := fixedHROps()

	tests := []struct {
		name   string
		params map[string]string
		want   string
	}{
		{
			"bad start date",
			map[string]string{"start_date": "Jan 20", "end_date": "2026-01-25"},
			"Invalid date format",
		},
		{
			"end before start",
			map[string]string{"start_date": "2026-01-25", "end_date": "2026-01-20"},
			"must not be before",
		},
		{
			"unknown leave type",
			map[string]string{"leave_type": "sabbatical", "start_date": "2026-02-02", "end_date": "2026-02-03"},
			"Invalid leave type",
		},
		{
			"insufficient balance",
			map[string]string{"leave_type": "personal", "start_date": "2026-02-02", "end_date": "2026-02-06"},
			"Insufficient personal leave balance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := hr.Invoke(applyLeaveIntent(tt.params))
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestPolicyQuery(t *testing.T) {
	hr := fixedHROps()

	tests := []struct {
		query string
		want  string
	}{
		{"leave", "20 days per year"},
		{"remote work", "Up to 3 days per week"},
		{"expense", "$200/night"},
		{"code of conduct", "Ethics Hotline"},
		{"parking", "not found"},
	}

	for _, tt := range tests {
		out, err := hr.Invoke(store.ActionIntent{
			Tool:       store.DomainHR,
			Action:     ActionPolicyQuery,
			Parameters: map[string]string{"policy_name": tt.query},
		})
		if err != nil {
			t.Fatalf("Invoke(%q): %v", tt.query, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("policy_query(%q) missing %q:\n%s", tt.query, tt.want, out)
		}
	}
}

func TestBenefitsInfo(t *testing.T) {
	hr := fixedHROps()

	specific, err := hr.Invoke(store.ActionIntent{
		Tool:       store.DomainHR,
		Action:     ActionBenefitsInfo,
		Parameters: map[string]string{"benefit_name": "dental"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !strings.Contains(specific, "Delta Dental") {
		t.Errorf("dental lookup missing provider:\n%s", specific)
	}

	summary, err := hr.Invoke(store.ActionIntent{Tool: store.DomainHR, Action: ActionBenefitsInfo})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	for _, want := range []string{"Medical Insurance", "401(k)", "Paid Time Off"} {
		if !strings.Contains(summary, want) {
			t.Errorf("benefits summary missing %q", want)
		}
	}
}

func TestHRRequiredParameters(t *testing.T) {
	hr := NewHROperations()
	got := hr.RequiredParameters(ActionLeaveApplication)
	if len(got) != 2 || got[0] != "start_date" || got[1] != "end_date" {
		t.Errorf("leave_application requires %v, want [start_date end_date]", got)
	}
	if got := hr.RequiredParameters(ActionLeaveBalance); len(got) != 0 {
		t.Errorf("leave_balance requires %v, want none", got)
	}
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()

	out, err := registry.Invoke(store.ActionIntent{
		Tool:       store.DomainHR,
		Action:     ActionLeaveBalance,
		Parameters: map[string]string{},
	})
	if err != nil {
		t.Fatalf("Invoke hr: %v", err)
	}
	if !strings.Contains(out, "Annual: 20 days") {
		t.Errorf("hr dispatch output:\n%s", out)
	}

	if _, err := registry.Invoke(store.ActionIntent{Tool: store.DomainNone}); err != ErrNoTool {
		t.Errorf("none domain error = %v, want ErrNoTool", err)
	}
	if _, err := registry.Invoke(store.ActionIntent{Tool: store.Domain("finance")}); err == nil {
		t.Error("unregistered domain should error")
	}
}

func TestRegistryRequiredParameters(t *testing.T) {
	registry := NewRegistry()
	if got := registry.RequiredParameters(store.DomainDev, ActionSuggestFix); len(got) != 1 || got[0] != "issue_type" {
		t.Errorf("suggest_fix requires %v, want [issue_type]", got)
	}
	if got := registry.RequiredParameters(store.DomainNone, "anything"); got != nil {
		t.Errorf("none domain requires %v, want nil", got)
	}
}
