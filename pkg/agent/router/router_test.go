package router

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"byteme-assistant-be/pkg/llm"
	"byteme-assistant-be/pkg/store"
	"byteme-assistant-be/pkg/tools"
)

type scriptedLLM struct {
	response string
	err      error
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func newTestRouter(provider llm.LLMProvider) *Router {
	r := NewRouter(provider, tools.NewRegistry(), log.New(io.Discard, "", 0))
	r.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}
	return r
}

var allDomains = []string{"it", "dev", "hr"}

func TestClassifyParsesModelDecision(t *testing.T) {
	provider := &scriptedLLM{response: `{"domain": "hr", "action": "leave_balance", "parameters": {}}`}
	r := newTestRouter(provider)

	intent, denied := r.Classify(context.Background(), "How much annual leave do I have?", allDomains)
	if denied != "" {
		t.Fatalf("unexpected denial: %s", denied)
	}
	if intent.Tool != store.DomainHR {
		t.Errorf("expected hr domain, got %s", intent.Tool)
	}
	if intent.Action != tools.ActionLeaveBalance {
		t.Errorf("expected leave_balance, got %q", intent.Action)
	}
	if !intent.Complete() {
		t.Errorf("expected complete intent, missing %v", intent.MissingParameters)
	}
}

func TestClassifyToleratesProseAroundJSON(t *testing.T) {
	provider := &scriptedLLM{response: "Sure, here is the classification:\n{\"domain\": \"it\", \"action\": \"\", \"parameters\": {}}\nDone."}
	r := newTestRouter(provider)

	intent, _ := r.Classify(context.Background(), "What is the wifi name?", allDomains)
	if intent.Tool != store.DomainIT {
		t.Errorf("expected it domain, got %s", intent.Tool)
	}
	if intent.Action != "" {
		t.Errorf("expected no action, got %q", intent.Action)
	}
}

func TestClassifyNormalizesDates(t *testing.T) {
	provider := &scriptedLLM{response: `{"domain": "hr", "action": "leave_application", "parameters": {"start_date": "Jan 20", "end_date": "Jan 25"}}`}
	r := newTestRouter(provider)

	intent, _ := r.Classify(context.Background(), "Apply for leave from Jan 20 to Jan 25", allDomains)
	if intent.Parameters["start_date"] != "2026-01-20" {
		t.Errorf("start_date = %q, want 2026-01-20", intent.Parameters["start_date"])
	}
	if intent.Parameters["end_date"] != "2026-01-25" {
		t.Errorf("end_date = %q, want 2026-01-25", intent.Parameters["end_date"])
	}
	if !intent.Complete() {
		t.Errorf("expected complete intent, missing %v", intent.MissingParameters)
	}
}

func TestClassifyUnknownActionDowngradesToQA(t *testing.T) {
	provider := &scriptedLLM{response: `{"domain": "it", "action": "reboot_server", "parameters": {}}`}
	r := newTestRouter(provider)

	intent, _ := r.Classify(context.Background(), "Reboot the mail server", allDomains)
	if intent.Tool != store.DomainIT {
		t.Errorf("expected it domain, got %s", intent.Tool)
	}
	if intent.Action != "" {
		t.Errorf("invented action should be dropped, got %q", intent.Action)
	}
	if len(intent.MissingParameters) != 0 {
		t.Errorf("QA intent should not have missing parameters, got %v", intent.MissingParameters)
	}
}

func TestClassifyRequiresTicketConfirmation(t *testing.T) {
	provider := &scriptedLLM{response: `{"domain": "it", "action": "create_ticket", "parameters": {"issue": "VPN connection failing"}}`}
	r := newTestRouter(provider)

	intent, _ := r.Classify(context.Background(), "I can't connect to the VPN", allDomains)
	if intent.Complete() {
		t.Fatal("ticket without confirmation must not be complete")
	}
	if len(intent.MissingParameters) != 1 || intent.MissingParameters[0] != "confirm" {
		t.Errorf("expected missing [confirm], got %v", intent.MissingParameters)
	}
}

func TestClassifyFailClosed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
	}{
		{"domain not in allowed set", []string{"hr"}},
		{"empty allowed set", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedLLM{response: `{"domain": "it", "action": "password_reset", "parameters": {}}`}
			r := newTestRouter(provider)

			intent, denied := r.Classify(context.Background(), "Reset my password", tt.allowed)
			if denied != store.DomainIT {
				t.Errorf("expected denial of it, got %q", denied)
			}
			if intent.Tool != store.DomainNone {
				t.Errorf("denied intent should downgrade to none, got %s", intent.Tool)
			}
			if intent.Action != "" {
				t.Errorf("denied intent should carry no action, got %q", intent.Action)
			}
		})
	}
}

func TestClassifyFallsBackOnProviderError(t *testing.T) {
	provider := &scriptedLLM{err: errors.New("connection refused")}
	r := newTestRouter(provider)

	intent, denied := r.Classify(context.Background(), "I can't connect to the VPN", allDomains)
	if denied != "" {
		t.Fatalf("unexpected denial: %s", denied)
	}
	if intent.Tool != store.DomainIT {
		t.Errorf("expected it domain from keywords, got %s", intent.Tool)
	}
	if intent.Action != tools.ActionCreateTicket {
		t.Errorf("expected create_ticket draft, got %q", intent.Action)
	}
	if intent.Parameters["confirm"] != "" {
		t.Error("described problem must not auto-confirm a ticket")
	}
}

func TestClassifyFallsBackOnGarbageResponse(t *testing.T) {
	provider := &scriptedLLM{response: "I think this is about leave, probably."}
	r := newTestRouter(provider)

	intent, _ := r.Classify(context.Background(), "What is the leave policy?", allDomains)
	if intent.Tool != store.DomainHR {
		t.Errorf("expected hr from keyword fallback, got %s", intent.Tool)
	}
}

func TestKeywordClassify(t *testing.T) {
	r := newTestRouter(&scriptedLLM{err: errors.New("down")})

	tests := []struct {
		name       string
		query      string
		wantTool   store.Domain
		wantAction string
		wantParams map[string]string
	}{
		{
			name:       "explicit ticket request is confirmed",
			query:      "Please create a ticket for my broken laptop",
			wantTool:   store.DomainIT,
			wantAction: tools.ActionCreateTicket,
			wantParams: map[string]string{"confirm": "yes"},
		},
		{
			name:       "password reset",
			query:      "How do I reset my password for the VPN?",
			wantTool:   store.DomainIT,
			wantAction: tools.ActionPasswordReset,
			wantParams: map[string]string{"target_system": "VPN"},
		},
		{
			name:       "ticket status by id",
			query:      "What is the status of ticket INC20260825A3F09B?",
			wantTool:   store.DomainIT,
			wantAction: tools.ActionCheckStatus,
			wantParams: map[string]string{"ticket_id": "INC20260825A3F09B"},
		},
		{
			name:       "software install",
			query:      "Can you install Docker Desktop?",
			wantTool:   store.DomainIT,
			wantAction: tools.ActionSoftwareRequest,
			wantParams: map[string]string{"software_name": "Docker Desktop"},
		},
		{
			name:       "leave application with dates",
			query:      "Apply for leave from Jan 20 to Jan 25",
			wantTool:   store.DomainHR,
			wantAction: tools.ActionLeaveApplication,
			wantParams: map[string]string{"start_date": "2026-01-20", "end_date": "2026-01-25"},
		},
		{
			name:       "leave application without dates",
			query:      "I want to apply for leave",
			wantTool:   store.DomainHR,
			wantAction: tools.ActionLeaveApplication,
		},
		{
			name:       "leave balance",
			query:      "What is my leave balance?",
			wantTool:   store.DomainHR,
			wantAction: tools.ActionLeaveBalance,
		},
		{
			name:       "policy lookup",
			query:      "What is the remote work policy?",
			wantTool:   store.DomainHR,
			wantAction: tools.ActionPolicyQuery,
		},
		{
			name:       "code review checklist",
			query:      "Give me the code review checklist",
			wantTool:   store.DomainDev,
			wantAction: tools.ActionCodeReview,
		},
		{
			name:     "dev question without action",
			query:    "Why does the deploy keep failing on the database step?",
			wantTool: store.DomainDev,
		},
		{
			name:     "general question",
			query:    "What did we discuss earlier?",
			wantTool: store.DomainNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, denied := r.Classify(context.Background(), tt.query, allDomains)
			if denied != "" {
				t.Fatalf("unexpected denial: %s", denied)
			}
			if intent.Tool != tt.wantTool {
				t.Errorf("tool = %s, want %s", intent.Tool, tt.wantTool)
			}
			if intent.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", intent.Action, tt.wantAction)
			}
			for key, want := range tt.wantParams {
				if got := intent.Parameters[key]; got != want {
					t.Errorf("parameter %s = %q, want %q", key, got, want)
				}
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	r := newTestRouter(&scriptedLLM{})

	tests := []struct {
		in     string
		want   string
		parsed bool
	}{
		{"2026-01-20", "2026-01-20", true},
		{"Jan 20", "2026-01-20", true},
		{"January 3, 2027", "2027-01-03", true},
		{"Jan 2nd", "2026-01-02", true},
		{"Dec. 31", "2026-12-31", true},
		{"tomorrow", "tomorrow", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, parsed := r.normalizeDate(tt.in)
		if parsed != tt.parsed {
			t.Errorf("normalizeDate(%q) parsed = %v, want %v", tt.in, parsed, tt.parsed)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractDateRange(t *testing.T) {
	r := newTestRouter(&scriptedLLM{})

	start, end, ok := r.extractDateRange("from Jan 20 to Jan 25 please")
	if !ok {
		t.Fatal("expected a date range")
	}
	if start != "2026-01-20" || end != "2026-01-25" {
		t.Errorf("range = %s..%s, want 2026-01-20..2026-01-25", start, end)
	}

	if _, _, ok := r.extractDateRange("starting on 2026-02-14"); ok {
		t.Error("single date must not form a range")
	}
}
