package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"byteme-assistant-be/pkg/llm"
	"byteme-assistant-be/pkg/store"
	"byteme-assistant-be/pkg/tools"
)

// domainActions is the closed action vocabulary per domain. The router never
// emits an action outside this table, whatever the model returns.
var domainActions = map[store.Domain][]string{
	store.DomainIT: {
		tools.ActionCreateTicket,
		tools.ActionCheckStatus,
		tools.ActionPasswordReset,
		tools.ActionSoftwareRequest,
		tools.ActionTroubleshoot,
	},
	store.DomainDev: {
		tools.ActionCodeExplanation,
		tools.ActionSuggestFix,
		tools.ActionAPIDocs,
		tools.ActionCodeReview,
	},
	store.DomainHR: {
		tools.ActionLeaveApplication,
		tools.ActionLeaveBalance,
		tools.ActionPolicyQuery,
		tools.ActionBenefitsInfo,
		tools.ActionOnboarding,
	},
}

// Router performs single-shot domain and action classification.
// One LLM call per query; a routing failure falls back to keyword scoring so
// the pipeline always gets exactly one intent.
type Router struct {
	llmProvider llm.LLMProvider
	registry    *tools.Registry
	logger      *log.Logger

	now func() time.Time
}

func NewRouter(llmProvider llm.LLMProvider, registry *tools.Registry, logger *log.Logger) *Router {
	return &Router{
		llmProvider: llmProvider,
		registry:    registry,
		logger:      logger,
		now:         time.Now,
	}
}

// Classify resolves the query into at most one intent. The second return
// names a domain the query matched but the caller may not access; when it is
// set the intent has been downgraded to DomainNone and no tool will run.
// Access is fail-closed: an empty allowed list denies every domain tool.
func (r *Router) Classify(ctx context.Context, query string, allowedDomains []string) (store.ActionIntent, store.Domain) {
	intent := r.resolve(ctx, query)
	intent = r.normalizeDates(intent)
	intent = r.withRequirements(intent)

	if intent.Tool.Routable() && !domainAllowed(intent.Tool, allowedDomains) {
		denied := intent.Tool
		r.logger.Printf("[ROUTE] Domain %s outside caller's allowed set %v, downgrading to none", denied, allowedDomains)
		return store.ActionIntent{Tool: store.DomainNone}, denied
	}

	r.logger.Printf("[ROUTE] Resolved: domain=%s action=%q missing=%v", intent.Tool, intent.Action, intent.MissingParameters)
	return intent, ""
}

func (r *Router) resolve(ctx context.Context, query string) store.ActionIntent {
	prompt := r.buildPrompt(query)

	response, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		r.logger.Printf("[ERROR] Domain routing failed: %v", err)
		return r.keywordClassify(query)
	}

	intent, err := r.parseDecision(response)
	if err != nil {
		r.logger.Printf("[WARN] Route parsing failed, using keyword fallback: %v", err)
		return r.keywordClassify(query)
	}
	return intent
}

func (r *Router) buildPrompt(query string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are the routing stage of an enterprise assistant. Your ONLY job is to\n")
	prompt.WriteString("classify the question into a domain and, when the user asks you to DO\n")
	prompt.WriteString("something, name the tool action with its parameters. You do NOT answer.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<domains>\n")
	prompt.WriteString("it: IT service desk — troubleshooting, support tickets, password resets, software installs\n")
	prompt.WriteString("dev: developer support — legacy module explanations, bug fix suggestions, internal API docs, code review\n")
	prompt.WriteString("hr: HR operations — leave, company policies, benefits, onboarding\n")
	prompt.WriteString("none: general question answering over the knowledge base\n")
	prompt.WriteString("</domains>\n\n")

	prompt.WriteString("<actions>\n")
	prompt.WriteString("it: create_ticket(issue, confirm, priority) | check_status(ticket_id) | password_reset(target_system) | software_request(software_name) | troubleshoot(issue, category)\n")
	prompt.WriteString("dev: code_explanation(module) | suggest_fix(issue_type) | api_docs(api_name) | code_review(language)\n")
	prompt.WriteString("hr: leave_application(start_date, end_date, leave_type) | leave_balance(leave_type) | policy_query(policy_name) | benefits_info(benefit_type) | onboarding\n\n")
	prompt.WriteString("Rules:\n")
	prompt.WriteString("- Set an action ONLY when the user asks to perform it; a question ABOUT a domain has an empty action.\n")
	prompt.WriteString("- Set confirm to \"yes\" ONLY when the user explicitly asks to create/open/raise a ticket. Describing a problem is NOT confirmation.\n")
	prompt.WriteString(fmt.Sprintf("- Normalize dates to YYYY-MM-DD; assume year %d when the user omits it.\n", r.now().Year()))
	prompt.WriteString("- Never invent parameter values the user did not state.\n")
	prompt.WriteString("</actions>\n\n")

	prompt.WriteString("<user_query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_query>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"domain\": \"it|dev|hr|none\", \"action\": \"create_ticket or empty\", \"parameters\": {\"issue\": \"...\"}}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

type routeDecision struct {
	Domain     string            `json:"domain"`
	Action     string            `json:"action"`
	Parameters map[string]string `json:"parameters"`
}

func (r *Router) parseDecision(response string) (store.ActionIntent, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return store.ActionIntent{}, fmt.Errorf("no JSON found in response")
	}

	var decision routeDecision
	if err := json.Unmarshal([]byte(jsonContent), &decision); err != nil {
		return store.ActionIntent{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	domain := store.Domain(strings.ToLower(strings.TrimSpace(decision.Domain)))
	if !domain.Valid() {
		return store.ActionIntent{}, fmt.Errorf("unknown domain %q", decision.Domain)
	}

	intent := store.ActionIntent{
		Tool:       domain,
		Parameters: decision.Parameters,
	}
	// Unknown or out-of-domain actions degrade to plain QA rather than
	// reaching a tool that would reject them.
	action := strings.ToLower(strings.TrimSpace(decision.Action))
	if actionKnown(domain, action) {
		intent.Action = action
	}
	if intent.Parameters == nil {
		intent.Parameters = map[string]string{}
	}
	return intent, nil
}

func actionKnown(domain store.Domain, action string) bool {
	for _, known := range domainActions[domain] {
		if known == action {
			return true
		}
	}
	return false
}

func domainAllowed(domain store.Domain, allowedDomains []string) bool {
	for _, allowed := range allowedDomains {
		if store.Domain(allowed) == domain {
			return true
		}
	}
	return false
}

// withRequirements fills MissingParameters from the tool registry. An intent
// without an action never has missing parameters.
func (r *Router) withRequirements(intent store.ActionIntent) store.ActionIntent {
	if intent.Action == "" {
		intent.MissingParameters = nil
		return intent
	}
	var missing []string
	for _, name := range r.registry.RequiredParameters(intent.Tool, intent.Action) {
		if strings.TrimSpace(intent.Parameters[name]) == "" {
			missing = append(missing, name)
		}
	}
	intent.MissingParameters = missing
	return intent
}

var ticketIDPattern = regexp.MustCompile(`INC[0-9A-F]{6,}`)

// Keyword tables mirrored from the routing prompt; used only when the model
// is unreachable or returns garbage.
var (
	itKeywords  = []string{"password", "vpn", "printer", "laptop", "wifi", "email", "software", "install", "ticket", "computer", "network"}
	devKeywords = []string{"code", "bug", "api", "deploy", "function", "repository", "database", "module"}
	hrKeywords  = []string{"leave", "vacation", "policy", "salary", "benefit", "payroll", "holiday", "onboarding"}

	problemMarkers = []string{"can't", "cannot", "unable", "not working", "broken", "keeps failing", "issue with", "problem with", "down"}
)

func (r *Router) keywordClassify(query string) store.ActionIntent {
	q := strings.ToLower(query)

	domain := fallbackDomain(q)
	intent := store.ActionIntent{Tool: domain, Parameters: map[string]string{}}

	switch domain {
	case store.DomainIT:
		r.detectITAction(&intent, q, query)
	case store.DomainDev:
		detectDevAction(&intent, q, query)
	case store.DomainHR:
		r.detectHRAction(&intent, q, query)
	}
	return intent
}

// fallbackDomain scores each domain by keyword hits; ties go to the earlier
// domain and zero hits mean general QA.
func fallbackDomain(q string) store.Domain {
	best, bestScore := store.DomainNone, 0
	for _, candidate := range []struct {
		domain   store.Domain
		keywords []string
	}{
		{store.DomainIT, itKeywords},
		{store.DomainDev, devKeywords},
		{store.DomainHR, hrKeywords},
	} {
		score := 0
		for _, kw := range candidate.keywords {
			if strings.Contains(q, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = candidate.domain, score
		}
	}
	return best
}

func (r *Router) detectITAction(intent *store.ActionIntent, q, query string) {
	switch {
	case strings.Contains(q, "password") && containsAny(q, "reset", "forgot", "locked"):
		intent.Action = tools.ActionPasswordReset
		if strings.Contains(q, "vpn") {
			intent.Parameters["target_system"] = "VPN"
		}
	case ticketIDPattern.MatchString(strings.ToUpper(query)):
		intent.Action = tools.ActionCheckStatus
		intent.Parameters["ticket_id"] = ticketIDPattern.FindString(strings.ToUpper(query))
	case strings.Contains(q, "ticket") && containsAny(q, "create", "open", "raise", "file", "log"):
		intent.Action = tools.ActionCreateTicket
		intent.Parameters["issue"] = query
		intent.Parameters["confirm"] = "yes"
	case strings.Contains(q, "install"):
		intent.Action = tools.ActionSoftwareRequest
		if name := afterKeyword(query, "install"); name != "" {
			intent.Parameters["software_name"] = name
		}
	case containsAny(q, problemMarkers...):
		// A described problem opens a draft ticket; confirm stays empty so
		// the pipeline asks before filing anything.
		intent.Action = tools.ActionCreateTicket
		intent.Parameters["issue"] = query
	case containsAny(q, "troubleshoot", "how do i fix", "how to fix"):
		intent.Action = tools.ActionTroubleshoot
		intent.Parameters["issue"] = query
	}
}

func detectDevAction(intent *store.ActionIntent, q, query string) {
	switch {
	case strings.Contains(q, "explain") && containsAny(q, "module", "code"):
		intent.Action = tools.ActionCodeExplanation
		intent.Parameters["module"] = query
	case containsAny(q, "how to fix", "how do i fix", "suggest a fix", "fix for"):
		intent.Action = tools.ActionSuggestFix
		intent.Parameters["issue_type"] = query
	case containsAny(q, "api doc", "api documentation", "docs for the"):
		intent.Action = tools.ActionAPIDocs
		intent.Parameters["api_name"] = query
	case containsAny(q, "code review", "review checklist"):
		intent.Action = tools.ActionCodeReview
	}
}

func (r *Router) detectHRAction(intent *store.ActionIntent, q, query string) {
	switch {
	case containsAny(q, "leave balance", "remaining leave", "leaves left", "how many leave"):
		intent.Action = tools.ActionLeaveBalance
	case containsAny(q, "leave", "vacation", "time off") && containsAny(q, "apply", "request", "book", "take"):
		intent.Action = tools.ActionLeaveApplication
		if start, end, ok := r.extractDateRange(query); ok {
			intent.Parameters["start_date"] = start
			intent.Parameters["end_date"] = end
		}
	case strings.Contains(q, "onboarding"):
		intent.Action = tools.ActionOnboarding
	case strings.Contains(q, "benefit"):
		intent.Action = tools.ActionBenefitsInfo
	case strings.Contains(q, "policy"):
		intent.Action = tools.ActionPolicyQuery
		intent.Parameters["policy_name"] = query
	}
}

func containsAny(q string, markers ...string) bool {
	for _, marker := range markers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

// afterKeyword returns the text following the first occurrence of the
// keyword, trimmed of filler and punctuation.
func afterKeyword(query, keyword string) string {
	q := strings.ToLower(query)
	idx := strings.Index(q, keyword)
	if idx == -1 {
		return ""
	}
	rest := strings.TrimSpace(query[idx+len(keyword):])
	rest = strings.TrimSuffix(rest, "?")
	rest = strings.TrimSuffix(rest, ".")
	for _, filler := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(strings.ToLower(rest), filler) {
			rest = rest[len(filler):]
		}
	}
	return strings.TrimSpace(rest)
}

var datePattern = regexp.MustCompile(`(?i)\d{4}-\d{2}-\d{2}|(?:January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?`)

// extractDateRange pulls the first two date mentions out of the query; both
// must normalize for the range to count.
func (r *Router) extractDateRange(query string) (string, string, bool) {
	matches := datePattern.FindAllString(query, 2)
	if len(matches) < 2 {
		return "", "", false
	}
	start, okStart := r.normalizeDate(matches[0])
	end, okEnd := r.normalizeDate(matches[1])
	if !okStart || !okEnd {
		return "", "", false
	}
	return start, end, true
}

var ordinalSuffixPattern = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\b`)

var datedLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
}

// normalizeDates rewrites any date parameters to YYYY-MM-DD so the HR tool
// sees one format regardless of how the user phrased the dates.
func (r *Router) normalizeDates(intent store.ActionIntent) store.ActionIntent {
	for _, key := range []string{"start_date", "end_date"} {
		value, ok := intent.Parameters[key]
		if !ok || value == "" {
			continue
		}
		if normalized, parsed := r.normalizeDate(value); parsed {
			intent.Parameters[key] = normalized
		}
	}
	return intent
}

func (r *Router) normalizeDate(value string) (string, bool) {
	cleaned := strings.TrimSpace(value)
	cleaned = ordinalSuffixPattern.ReplaceAllString(cleaned, "$1")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	for _, layout := range datedLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return time.Date(r.now().Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format("2006-01-02"), true
		}
	}
	return value, false
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
