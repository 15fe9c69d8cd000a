package tools

import (
	"fmt"
	"strings"
	"time"

	"byteme-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// IT service desk actions.
const (
	ActionCreateTicket    = "create_ticket"
	ActionCheckStatus     = "check_status"
	ActionPasswordReset   = "password_reset"
	ActionSoftwareRequest = "software_request"
	ActionTroubleshoot    = "troubleshoot"
)

type softwareEntry struct {
	Name             string
	ApprovalRequired bool
	InstallTime      string
}

// ITServiceDesk handles tickets, troubleshooting guides, software requests
// and password resets. now and newID are swappable for deterministic tests.
// Catalog lookups iterate the ordered key slices; map iteration order would
// make matches nondeterministic when a query hits more than one entry.
type ITServiceDesk struct {
	now      func() time.Time
	newID    func() string
	newToken func() string

	guideOrder            []string
	troubleshootingGuides map[string][]string
	catalogOrder          []string
	softwareCatalog       map[string]softwareEntry
}

var _ Tool = &ITServiceDesk{}

func NewITServiceDesk() *ITServiceDesk {
	return &ITServiceDesk{
		now:        time.Now,
		newID:      func() string { return strings.ToUpper(uuid.New().String()[:6]) },
		newToken:   func() string { return strings.ToUpper(uuid.New().String()[:8]) },
		guideOrder: []string{"network", "password", "software", "printer", "email"},
		troubleshootingGuides: map[string][]string{
			"network": {
				"1. Check if your network cable is properly connected",
				"2. Restart your router/modem",
				"3. Run 'ipconfig /release' then 'ipconfig /renew' in CMD",
				"4. Check if other devices can connect to the network",
				"5. Contact IT if the issue persists",
			},
			"password": {
				"1. Check if Caps Lock is off",
				"2. Try your previous password",
				"3. Use 'Forgot Password' on the login page",
				"4. Wait 15 minutes if account is locked",
				"5. Contact IT for manual reset if needed",
			},
			"software": {
				"1. Restart the application",
				"2. Clear application cache/temp files",
				"3. Check for software updates",
				"4. Restart your computer",
				"5. Reinstall the application if issues persist",
			},
			"printer": {
				"1. Check if printer is powered on and connected",
				"2. Clear any paper jams",
				"3. Restart the print spooler service",
				"4. Remove and re-add the printer",
				"5. Update printer drivers",
			},
			"email": {
				"1. Check internet connectivity",
				"2. Verify email credentials",
				"3. Check sent/outbox for stuck emails",
				"4. Clear email cache",
				"5. Try webmail access to isolate the issue",
			},
		},
		catalogOrder: []string{"microsoft_office", "vscode", "slack", "zoom", "adobe_creative", "vmware", "docker"},
		softwareCatalog: map[string]softwareEntry{
			"microsoft_office": {Name: "Microsoft Office 365", ApprovalRequired: false, InstallTime: "30 mins"},
			"vscode":           {Name: "Visual Studio Code", ApprovalRequired: false, InstallTime: "10 mins"},
			"slack":            {Name: "Slack", ApprovalRequired: false, InstallTime: "5 mins"},
			"zoom":             {Name: "Zoom", ApprovalRequired: false, InstallTime: "5 mins"},
			"adobe_creative":   {Name: "Adobe Creative Cloud", ApprovalRequired: true, InstallTime: "60 mins"},
			"vmware":           {Name: "VMware Workstation", ApprovalRequired: true, InstallTime: "45 mins"},
			"docker":           {Name: "Docker Desktop", ApprovalRequired: true, InstallTime: "20 mins"},
		},
	}
}

func (t *ITServiceDesk) Invoke(intent store.ActionIntent) (string, error) {
	p := intent.Parameters
	switch intent.Action {
	case ActionCreateTicket:
		return t.createTicket(p["issue"], p["category"], p["priority"], p["description"]), nil
	case ActionCheckStatus:
		return t.checkStatus(p["ticket_id"]), nil
	case ActionPasswordReset:
		return t.passwordReset(p["target_system"]), nil
	case ActionSoftwareRequest:
		return t.softwareRequest(p["software_name"], p["justification"]), nil
	case ActionTroubleshoot:
		return t.troubleshoot(p["category"]), nil
	default:
		return "", fmt.Errorf("unknown IT service desk action %q", intent.Action)
	}
}

func (t *ITServiceDesk) RequiredParameters(action string) []string {
	switch action {
	case ActionCreateTicket:
		// confirm keeps a described problem from silently becoming a ticket;
		// the router only fills it when the user explicitly asks for one.
		return []string{"issue", "confirm"}
	case ActionCheckStatus:
		return []string{"ticket_id"}
	case ActionSoftwareRequest:
		return []string{"software_name"}
	default:
		return nil
	}
}

// TicketID mints a service desk incident id, e.g. INC20260825A3F09B.
func (t *ITServiceDesk) TicketID() string {
	return fmt.Sprintf("INC%s%s", t.now().Format("20060102"), t.newID())
}

func (t *ITServiceDesk) createTicket(issue, category, priority, description string) string {
	if category == "" {
		category = "general"
	}
	if priority == "" {
		priority = "medium"
	}
	ticketID := t.TicketID()
	sla := slaFor(priority)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ticket %s created successfully. Expected resolution within %s.\n\n", ticketID, sla)
	fmt.Fprintf(&sb, "Ticket details:\n")
	fmt.Fprintf(&sb, "- ID: %s\n", ticketID)
	fmt.Fprintf(&sb, "- Issue: %s\n", issue)
	fmt.Fprintf(&sb, "- Category: %s\n", category)
	fmt.Fprintf(&sb, "- Priority: %s\n", priority)
	if description != "" {
		fmt.Fprintf(&sb, "- Description: %s\n", description)
	}
	fmt.Fprintf(&sb, "- Status: Open\n- SLA: %s", sla)
	return sb.String()
}

func (t *ITServiceDesk) checkStatus(ticketID string) string {
	return fmt.Sprintf(
		"Ticket %s is currently Open and queued with the service desk. "+
			"You will receive an email update when an engineer is assigned. "+
			"For urgent escalation, reply with 'escalate %s'.",
		ticketID, ticketID)
}

func (t *ITServiceDesk) passwordReset(targetSystem string) string {
	if targetSystem == "" {
		targetSystem = "AD"
	}
	resetToken := t.newToken()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Password reset initiated for %s. Check your email for reset instructions.\n\n", targetSystem)
	sb.WriteString("1. A password reset link has been sent to your registered email\n")
	fmt.Fprintf(&sb, "2. Reset token: %s (valid for 30 minutes)\n", resetToken)
	sb.WriteString("3. Choose a password with at least 12 characters, including uppercase, lowercase, number, and special character\n")
	sb.WriteString("4. Your new password cannot match your last 5 passwords\n")
	sb.WriteString("5. Contact IT if you don't receive the email within 5 minutes")
	return sb.String()
}

func (t *ITServiceDesk) softwareRequest(softwareName, justification string) string {
	softwareKey := strings.ReplaceAll(strings.ToLower(softwareName), " ", "_")

	for _, key := range t.catalogOrder {
		info := t.softwareCatalog[key]
		if strings.Contains(softwareKey, key) || strings.Contains(strings.ToLower(info.Name), softwareKey) {
			if !info.ApprovalRequired {
				return fmt.Sprintf(
					"%s is pre-approved. Installation can proceed immediately. Estimated time: %s.",
					info.Name, info.InstallTime)
			}
			ticketID := t.TicketID()
			return fmt.Sprintf(
				"Software request for %s submitted. Requires manager approval. Ticket: %s.\nJustification: %s",
				info.Name, ticketID, orUnspecified(justification))
		}
	}

	ticketID := t.TicketID()
	return fmt.Sprintf(
		"%s is not in the software catalog. Request submitted for review. Ticket: %s.\nJustification: %s",
		softwareName, ticketID, orUnspecified(justification))
}

func (t *ITServiceDesk) troubleshoot(category string) string {
	categoryLower := strings.ToLower(strings.TrimSpace(category))
	if categoryLower != "" {
		for _, key := range t.guideOrder {
			if strings.Contains(categoryLower, key) || strings.Contains(key, categoryLower) {
				return fmt.Sprintf("Troubleshooting steps for %s issues:\n%s\n\nIf these steps don't resolve your issue, please create a support ticket.",
					key, strings.Join(t.troubleshootingGuides[key], "\n"))
			}
		}
	}

	generic := []string{
		"1. Restart your computer",
		"2. Check for recent system updates",
		"3. Clear temporary files",
		"4. Check system resources (CPU, Memory, Disk)",
		"5. Create a support ticket if the issue persists",
	}
	return fmt.Sprintf("General troubleshooting steps:\n%s\n\nFor specific troubleshooting, please provide more details about your issue.",
		strings.Join(generic, "\n"))
}

func slaFor(priority string) string {
	switch strings.ToLower(priority) {
	case "critical":
		return "4 hours"
	case "high":
		return "8 hours"
	case "low":
		return "72 hours"
	default:
		return "24 hours"
	}
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not provided)"
	}
	return s
}
