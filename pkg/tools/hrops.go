package tools

import (
	"fmt"
	"strings"
	"time"

	"byteme-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// HR operations actions.
const (
	ActionLeaveApplication = "leave_application"
	ActionLeaveBalance     = "leave_balance"
	ActionPolicyQuery      = "policy_query"
	ActionBenefitsInfo     = "benefits_info"
	ActionOnboarding       = "onboarding"
)

// leaveDateFormat is the accepted wire format for leave dates.
const leaveDateFormat = "2006-01-02"

// Standard leave entitlements in days per year.
var leaveEntitlements = map[string]int{
	"annual":   20,
	"sick":     12,
	"personal": 3,
	"parental": 0,
}

// HROperations handles leave applications, balances, policy lookups and
// benefits summaries.
type HROperations struct {
	now   func() time.Time
	newID func() string

	policyOrder  []string
	policies     map[string]string
	benefitOrder []string
	benefits     map[string]string
}

var _ Tool = &HROperations{}

func NewHROperations() *HROperations {
	return &HROperations{
		now:         time.Now,
		newID:       func() string { return strings.ToUpper(uuid.New().String()[:6]) },
		policyOrder: []string{"leave_policy", "remote_work", "expense_policy", "code_of_conduct"},
		policies: map[string]string{
			"leave_policy": `Leave Policy (effective 2024-01-01)

Annual leave:
- Entitlement: 20 days per year for full-time employees
- Accrual: 1.67 days per month
- Carryover: Maximum 5 days can be carried to next year
- Notice: Minimum 2 weeks notice for leaves > 5 days

Sick leave:
- Entitlement: 12 days per year
- Documentation: Medical certificate required for > 2 consecutive days
- Notification: Notify manager before shift starts

Parental leave:
- Maternity: 16 weeks paid leave
- Paternity: 4 weeks paid leave
- Eligibility: After 1 year of continuous service`,
			"remote_work": `Remote Work Policy (effective 2024-03-01)

- Eligibility: Employees with 6+ months tenure
- Frequency: Up to 3 days per week
- Requirements: stable internet connection, dedicated workspace, available during core hours (10 AM - 4 PM)
- Approval: Manager approval required`,
			"expense_policy": `Expense Reimbursement Policy (effective 2024-01-15)

Travel:
- Flights: Economy class for domestic, business for > 6 hours international
- Hotels: Up to $200/night domestic, $300/night international
- Meals: $75/day domestic, $100/day international

Equipment:
- Home office: Up to $500 one-time setup allowance
- Software: Requires IT approval

Submission: Within 30 days of expense with receipts`,
			"code_of_conduct": `Employee Code of Conduct (effective 2024-01-01)

Core values: Integrity, Respect, Excellence, Collaboration

Expectations:
- Treat colleagues with respect and dignity
- Maintain confidentiality of company information
- Report conflicts of interest
- Follow safety and security protocols

Reporting: Report violations to HR or Ethics Hotline`,
		},
		benefitOrder: []string{"health_insurance", "dental", "retirement", "pto"},
		benefits: map[string]string{
			"health_insurance": `Medical Insurance (BlueCross BlueShield)
- Employee: 100% premium covered
- Dependents: 80% premium covered
- Coverage: Up to $1M per year
- Enrollment: Within 30 days of joining or during open enrollment (November)`,
			"dental": `Dental Insurance (Delta Dental)
- Preventive: 100% covered
- Basic: 80% covered
- Major: 50% covered
- Annual maximum: $2,000`,
			"retirement": `401(k) Retirement Plan (Fidelity)
- Company match: 100% match up to 6% of salary
- Vesting: Immediate for employee contributions, 3-year for company match
- Enrollment: Automatic at 3% after 90 days`,
			"pto": `Paid Time Off
- Vacation: 20 days/year
- Sick: 12 days/year
- Personal: 3 days/year
- Holidays: 10 company holidays`,
		},
	}
}

func (t *HROperations) Invoke(intent store.ActionIntent) (string, error) {
	p := intent.Parameters
	switch intent.Action {
	case ActionLeaveApplication:
		return t.applyLeave(p["leave_type"], p["start_date"], p["end_date"], p["reason"]), nil
	case ActionLeaveBalance:
		return t.leaveBalance(), nil
	case ActionPolicyQuery:
		return t.policyQuery(p["policy_name"]), nil
	case ActionBenefitsInfo:
		return t.benefitsInfo(p["benefit_name"]), nil
	case ActionOnboarding:
		return t.onboardingChecklist(), nil
	default:
		return "", fmt.Errorf("unknown HR operations action %q", intent.Action)
	}
}

func (t *HROperations) RequiredParameters(action string) []string {
	switch action {
	case ActionLeaveApplication:
		return []string{"start_date", "end_date"}
	case ActionPolicyQuery:
		return []string{"policy_name"}
	default:
		return nil
	}
}

// RequestID mints a leave request id, e.g. LV202608257C01EE.
func (t *HROperations) RequestID() string {
	return fmt.Sprintf("LV%s%s", t.now().Format("20060102"), t.newID())
}

func (t *HROperations) applyLeave(leaveType, startDate, endDate, reason string) string {
	if leaveType == "" {
		leaveType = "annual"
	}
	leaveType = strings.ToLower(leaveType)

	start, err := time.Parse(leaveDateFormat, startDate)
	if err != nil {
		return "Invalid date format. Use YYYY-MM-DD (for example: 2026-01-20)."
	}
	end, err := time.Parse(leaveDateFormat, endDate)
	if err != nil {
		return "Invalid date format. Use YYYY-MM-DD (for example: 2026-01-25)."
	}
	if end.Before(start) {
		return "The end date must not be before the start date."
	}

	daysRequested := int(end.Sub(start).Hours()/24) + 1

	entitlement, ok := leaveEntitlements[leaveType]
	if !ok {
		return fmt.Sprintf("Invalid leave type %q. Valid types: annual, sick, personal, parental.", leaveType)
	}
	if daysRequested > entitlement {
		return fmt.Sprintf(
			"Insufficient %s leave balance. Available: %d days, requested: %d days.",
			leaveType, entitlement, daysRequested)
	}

	// Long leaves need lead time for coverage planning.
	daysUntilStart := int(start.Sub(t.now()).Hours() / 24)
	if daysRequested > 5 && daysUntilStart < 14 {
		return "Leaves > 5 days require minimum 2 weeks notice. " +
			"Please submit earlier or contact HR for exception approval."
	}

	requestID := t.RequestID()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Leave request %s submitted successfully.\n\n", requestID)
	fmt.Fprintf(&sb, "- Type: %s\n", leaveType)
	fmt.Fprintf(&sb, "- From: %s\n", startDate)
	fmt.Fprintf(&sb, "- To: %s\n", endDate)
	fmt.Fprintf(&sb, "- Days: %d\n", daysRequested)
	if reason != "" {
		fmt.Fprintf(&sb, "- Reason: %s\n", reason)
	}
	sb.WriteString("- Status: Pending Approval\n\n")
	sb.WriteString("Next steps:\n")
	sb.WriteString("1. Your manager will be notified for approval\n")
	sb.WriteString("2. You'll receive an email once approved/rejected\n")
	sb.WriteString("3. Update your calendar once approved")
	return sb.String()
}

func (t *HROperations) leaveBalance() string {
	return `Your current leave balance:
- Annual: 20 days
- Sick: 12 days
- Personal: 3 days
- Parental: per eligibility (see the leave policy)

Balances reflect the standard annual entitlement. Approved leave is deducted by the HR system.`
}

func (t *HROperations) policyQuery(policyName string) string {
	policyKey := strings.ReplaceAll(strings.ToLower(policyName), " ", "_")

	for _, key := range t.policyOrder {
		if strings.Contains(policyKey, strings.TrimSuffix(key, "_policy")) || strings.Contains(key, policyKey) {
			return t.policies[key]
		}
	}

	titles := []string{"Leave Policy", "Remote Work Policy", "Expense Reimbursement Policy", "Employee Code of Conduct"}
	return fmt.Sprintf("Policy %q not found. Available policies: %s.", policyName, strings.Join(titles, ", "))
}

func (t *HROperations) benefitsInfo(benefitName string) string {
	if strings.TrimSpace(benefitName) == "" {
		var sb strings.Builder
		sb.WriteString("Benefits overview:\n")
		for _, key := range t.benefitOrder {
			sb.WriteString("\n")
			sb.WriteString(t.benefits[key])
			sb.WriteString("\n")
		}
		return sb.String()
	}

	benefitKey := strings.ReplaceAll(strings.ToLower(benefitName), " ", "_")
	for _, key := range t.benefitOrder {
		if strings.Contains(benefitKey, key) || strings.Contains(key, benefitKey) ||
			strings.Contains(strings.ToLower(t.benefits[key]), benefitKey) {
			return t.benefits[key]
		}
	}

	return fmt.Sprintf("Benefit %q not found. Available: Medical Insurance, Dental Insurance, 401(k) Retirement Plan, Paid Time Off.", benefitName)
}

func (t *HROperations) onboardingChecklist() string {
	return `Onboarding checklist:

Day 1:
- Complete I-9 and tax forms
- Receive employee ID badge
- Set up computer and email
- Review employee handbook
- Meet with HR for benefits overview

Week 1:
- Complete mandatory compliance training
- Enroll in benefits
- Set up direct deposit
- Meet with manager for role expectations
- Get access to required systems

Month 1:
- Complete all assigned training
- Attend new hire orientation session
- Schedule check-in with HR
- Complete 30-day manager review

Contacts: hr@company.com, benefits@company.com, itsupport@company.com`
}
