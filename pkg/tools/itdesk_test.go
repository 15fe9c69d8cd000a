package tools

import (
	"strings"
	"testing"
	"time"

	"byteme-assistant-be/pkg/store"
)

func fixedITDesk() *ITServiceDesk {
	t := NewITServiceDesk()
	t.now = func() time.Time { return time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC) }
	t.newID = func() string { return "A3F09B" }
	t.newToken = func() string { return "A3F09B2C" }
	return t
}

func TestTicketIDFormat(t *testing.T) {
	desk := fixedITDesk()
	if got, want := desk.TicketID(), "INC20260825A3F09B"; got != want {
		t.Errorf("TicketID = %q, want %q", got, want)
	}
}

func TestCreateTicketOutput(t *testing.T) {
	desk := fixedITDesk()
	out, err := desk.Invoke(store.ActionIntent{
		Tool:   store.DomainIT,
		Action: ActionCreateTicket,
		Parameters: map[string]string{
			"issue":    "Cannot connect to the VPN",
			"priority": "high",
			"confirm":  "yes",
		},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	for _, want := range []string{"INC20260825A3F09B", "8 hours", "Cannot connect to the VPN", "Status: Open"} {
		if !strings.Contains(out, want) {
			t.Errorf("ticket output missing %q:\n%s", want, out)
		}
	}
}

func TestCreateTicketDeterministic(t *testing.T) {
	desk := fixedITDesk()
	intent := store.ActionIntent{
		Tool:       store.DomainIT,
		Action:     ActionCreateTicket,
		Parameters: map[string]string{"issue": "printer jam", "confirm": "yes"},
	}

	first, err := desk.Invoke(intent)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	second, err := desk.Invoke(intent)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if first != second {
		t.Error("identical intents produced different outputs")
	}
}

func TestSLAForPriority(t *testing.T) {
	tests := []struct {
		priority string
		want     string
	}{
		{"critical", "4 hours"},
		{"high", "8 hours"},
		{"medium", "24 hours"},
		{"low", "72 hours"},
		{"", "24 hours"},
		{"unknown", "24 hours"},
	}
	for _, tt := range tests {
		if got := slaFor(tt.priority); got != tt.want {
			t.Errorf("slaFor(%q) = %q, want %q", tt.priority, got, tt.want)
		}
	}
}

func TestTroubleshootMatchesCategory(t *testing.T) {
	desk := fixedITDesk()
	tests := []struct {
		category string
		want     string
	}{
		{"printer", "print spooler"},
		{"my email is broken", "webmail"},
		{"network issues", "router"},
		{"", "General troubleshooting"},
		{"quantum flux", "General troubleshooting"},
	}

	for _, tt := range tests {
		out, err := desk.Invoke(store.ActionIntent{
			Tool:       store.DomainIT,
			Action:     ActionTroubleshoot,
			Parameters: map[string]string{"category": tt.category},
		})
		if err != nil {
			t.Fatalf("Invoke(%q): %v", tt.category, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("troubleshoot(%q) missing %q:\n%s", tt.category, tt.want, out)
		}
	}
}

func TestSoftwareRequestApprovalFlow(t *testing.T) {
	desk := fixedITDesk()

	preApproved, err := desk.Invoke(store.ActionIntent{
		Tool:       store.DomainIT,
		Action:     ActionSoftwareRequest,
		Parameters: map[string]string{"software_name": "slack"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !strings.Contains(preApproved, "pre-approved") {
		t.Errorf("slack should be pre-approved:\n%s", preApproved)
	}

	needsApproval, err := desk.Invoke(store.ActionIntent{
		Tool:       store.DomainIT,
		Action:     ActionSoftwareRequest,
		Parameters: map[string]string{"software_name": "docker", "justification": "local testing"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !strings.Contains(needsApproval, "manager approval") || !strings.Contains(needsApproval, "INC20260825A3F09B") {
		t.Errorf("docker should require approval with a ticket:\n%s", needsApproval)
	}

	unknown, err := desk.Invoke(store.ActionIntent{
		Tool:       store.DomainIT,
		Action:     ActionSoftwareRequest,
		Parameters: map[string]string{"software_name": "HyperCAD 3000"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !strings.Contains(unknown, "not in the software catalog") {
		t.Errorf("unknown software should go to review:\n%s", unknown)
	}
}

func TestPasswordResetOutput(t *testing.T) {
	desk := fixedITDesk()
	out, err := desk.Invoke(store.ActionIntent{
		Tool:       store.DomainIT,
		Action:     ActionPasswordReset,
		Parameters: map[string]string{"target_system": "VPN"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !strings.Contains(out, "VPN") || !strings.Contains(out, "A3F09B2C") {
		t.Errorf("reset output missing system or token:\n%s", out)
	}
}

func TestITRequiredParameters(t *testing.T) {
	desk := NewITServiceDesk()

	got := desk.RequiredParameters(ActionCreateTicket)
	if len(got) != 2 || got[0] != "issue" || got[1] != "confirm" {
		t.Errorf("create_ticket requires %v, want [issue confirm]", got)
	}
	if got := desk.RequiredParameters(ActionTroubleshoot); len(got) != 0 {
		t.Errorf("troubleshoot requires %v, want none", got)
	}
}

func TestITUnknownAction(t *testing.T) {
	desk := NewITServiceDesk()
	if _, err := desk.Invoke(store.ActionIntent{Tool: store.DomainIT, Action: "reboot_datacenter"}); err == nil {
		t.Error("unknown action should error")
	}
}
