package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"byteme-assistant-be/internal/constant"
	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/repository/unitofwork"
	"byteme-assistant-be/pkg/agent/consolidate"
	"byteme-assistant-be/pkg/agent/reflection"
	"byteme-assistant-be/pkg/agent/response"
	"byteme-assistant-be/pkg/search"
	"byteme-assistant-be/pkg/store"
	"byteme-assistant-be/pkg/tools"
)

// Memory is the two-tier memory surface the workflow needs.
type Memory interface {
	Load(ctx context.Context, key store.SessionKey, query string) store.MemoryContext
	Record(ctx context.Context, key store.SessionKey, turn store.Turn) error
	Promote(ctx context.Context, key store.SessionKey, turn store.Turn) (bool, *entity.DurableMemory, error)
}

// Classifier resolves a query into at most one intent, reporting any domain
// the caller matched but may not access.
type Classifier interface {
	Classify(ctx context.Context, query string, allowedDomains []string) (store.ActionIntent, store.Domain)
}

// Invoker executes a complete intent against the domain tools.
type Invoker interface {
	Invoke(intent store.ActionIntent) (string, error)
}

// Retriever fetches scored passages for a query over a domain whitelist.
type Retriever interface {
	Retrieve(ctx context.Context, domains []string, query string) ([]store.Passage, error)
}

// RelevanceGrader scores retrieved passages against the query.
type RelevanceGrader interface {
	Grade(ctx context.Context, query string, passages []store.Passage) []store.GradedPassage
}

// AnswerGenerator drafts the answer from retained passages and memory.
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, domain store.Domain, passages []store.GradedPassage, memory store.MemoryContext, guidance string) (string, error)
}

// AnswerVerifier checks a draft against the passages it cites.
type AnswerVerifier interface {
	Verify(ctx context.Context, draft string, passages []store.GradedPassage) reflection.Verdict
}

// Rewriter condenses a conversational question for retrieval.
type Rewriter interface {
	Rewrite(ctx context.Context, question string) string
}

// SearchRetriever adapts the hybrid search stack to the Retriever surface,
// opening a fresh unit of work per retrieval.
type SearchRetriever struct {
	Factory  unitofwork.RepositoryFactory
	Searcher *search.Orchestrator
	Config   search.Config
}

func (r *SearchRetriever) Retrieve(ctx context.Context, domains []string, query string) ([]store.Passage, error) {
	uow := r.Factory.NewUnitOfWork(ctx)
	return r.Searcher.Execute(ctx, uow, domains, query, r.Config)
}

// Result is everything one turn produced. Turn is what the caller shows and
// stores; Trace is the per-stage record for streaming and audit.
type Result struct {
	Turn           store.Turn
	Intent         store.ActionIntent
	GradedPassages []store.GradedPassage
	Grounded       bool
	Retries        int
	Clarification  bool
	// Promoted is true only when this turn wrote a NEW durable memory;
	// a content-hash duplicate leaves it false. PromotedMemory is set
	// only when Promoted.
	Promoted       bool
	PromotedMemory *entity.DurableMemory
	Trace          []store.StageEvent
}

// Orchestrator runs one conversational turn through the fixed stage graph:
//
//	START → MEMORY_LOAD → ROUTE → (ACTION_SHORTCUT | CLARIFY | RETRIEVE →
//	GRADE → GENERATE ⇄ REFLECT) → PERSIST → END
//
// Every stage is fallible and every failure degrades locally: the only
// error Run returns is caller cancellation; the turn itself reports
// everything else.
type Orchestrator struct {
	cfg        Config
	memory     Memory
	classifier Classifier
	invoker    Invoker
	rewriter   Rewriter
	retriever  Retriever
	grader     RelevanceGrader
	generator  AnswerGenerator
	verifier   AnswerVerifier
	policy     consolidate.Policy
	logger     *log.Logger
}

func NewOrchestrator(
	cfg Config,
	memory Memory,
	classifier Classifier,
	invoker Invoker,
	rewriter Rewriter,
	retriever Retriever,
	grader RelevanceGrader,
	generator AnswerGenerator,
	verifier AnswerVerifier,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		memory:     memory,
		classifier: classifier,
		invoker:    invoker,
		rewriter:   rewriter,
		retriever:  retriever,
		grader:     grader,
		generator:  generator,
		verifier:   verifier,
		policy: consolidate.Policy{
			GroundedImportance:   cfg.GroundedImportance,
			UngroundedImportance: cfg.UngroundedImportance,
			PromotionThreshold:   cfg.PromotionThreshold,
		},
		logger: logger,
	}
}

// Run executes one turn. The work is bounded by cfg.RequestTimeout; on
// expiry the best available draft is returned (unverified) instead of an
// error. Run returns a non-nil error only when ctx itself is done, in which
// case nothing has been persisted.
func (o *Orchestrator) Run(ctx context.Context, query string, key store.SessionKey, allowedDomains []string) (*Result, error) {
	state := &State{
		Query:          query,
		Key:            key,
		AllowedDomains: allowedDomains,
		Domain:         store.DomainNone,
	}
	o.logger.Printf("[START] user=%s session=%s query=%q", key.UserID, key.SessionID, truncate(query, 80))
	state.AddTrace(store.StageStart, "query received")

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	// MEMORY_LOAD
	state.Memory = o.memory.Load(runCtx, key, query)
	o.logger.Printf("[MEMORY_LOAD] %d session turns, %d durable memories", len(state.Memory.Session), len(state.Memory.Durable))
	state.AddTrace(store.StageMemoryLoad, "%d session turns, %d durable memories", len(state.Memory.Session), len(state.Memory.Durable))

	// ROUTE
	intent, denied := o.classifier.Classify(runCtx, query, allowedDomains)
	state.Intent = intent
	if denied != "" {
		o.logger.Printf("[ROUTE] Access to %s denied for user %s", denied, key.UserID)
		state.AddTrace(store.StageRoute, "access to %s denied", denied)
		state.FinalAnswer = deniedReply(denied)
		return o.persist(ctx, state)
	}
	state.AddTrace(store.StageRoute, "domain=%s action=%q", intent.Tool, intent.Action)

	// ACTION_SHORTCUT: a fully-specified intent skips retrieval entirely.
	if intent.Complete() {
		output, err := o.invoker.Invoke(intent)
		if err == nil {
			o.logger.Printf("[ACTION_SHORTCUT] %s/%s executed", intent.Tool, intent.Action)
			state.AddTrace(store.StageActionShortcut, "%s executed", intent.Action)
			state.FinalAnswer = output
			state.Domain = intent.Tool
			state.Grounded = true
			return o.persist(ctx, state)
		}
		// Invocation failure is recoverable: answer the question from the
		// knowledge base instead.
		o.logger.Printf("[ERROR] Tool invocation failed, falling back to retrieval: %v", err)
		state.AddTrace(store.StageActionShortcut, "tool failed, falling back to retrieval")
	} else if needsClarification(intent) {
		// CLARIFY: the action is known but underspecified; ask instead of
		// guessing parameter values.
		o.logger.Printf("[CLARIFY] %s/%s missing %v", intent.Tool, intent.Action, intent.MissingParameters)
		state.AddTrace(store.StageClarify, "missing: %s", strings.Join(intent.MissingParameters, ", "))
		state.FinalAnswer = clarificationReply(intent)
		state.Domain = intent.Tool
		return o.persistClarification(ctx, state)
	}

	// RETRIEVE
	searchQuery := query
	if o.rewriter != nil {
		searchQuery = o.rewriter.Rewrite(runCtx, query)
	}
	domains := retrievalDomains(intent, allowedDomains)
	passages, err := o.retriever.Retrieve(runCtx, domains, searchQuery)
	if err != nil {
		o.logger.Printf("[WARN] Retrieval unavailable, proceeding with memory only: %v", err)
		passages = nil
	}
	state.RawPassages = passages
	if searchQuery != query {
		state.AddTrace(store.StageRetrieve, "%d passages for rewritten query %q", len(passages), truncate(searchQuery, 60))
	} else {
		state.AddTrace(store.StageRetrieve, "%d passages", len(passages))
	}

	// GRADE
	state.GradedPassages = o.grader.Grade(runCtx, query, passages)
	retained := store.Retained(state.GradedPassages)
	state.AddTrace(store.StageGrade, "%d/%d passages retained", len(retained), len(state.GradedPassages))

	if intent.Tool.Routable() {
		state.Domain = intent.Tool
	}

	// GENERATE ⇄ REFLECT, bounded by MaxReflectRetries.
	generate := func(ctx context.Context, guidance string) (string, error) {
		return o.generator.Generate(ctx, query, state.Domain, retained, state.Memory, guidance)
	}
	verify := func(ctx context.Context, draft string) reflection.Verdict {
		verdict := o.verifier.Verify(ctx, draft, retained)
		o.logger.Printf("[REFLECT] pass=%v reason=%q", verdict.Pass, verdict.Reason)
		return verdict
	}
	draft, grounded, retries, err := Attempt(runCtx, generate, verify, o.cfg.MaxReflectRetries)
	state.Retries = retries
	if err != nil {
		// No backend produced even one draft. The turn reports the outage
		// and is NOT persisted: an apology teaches the memory tiers nothing.
		o.logger.Printf("[ERROR] Generation unavailable: %v", err)
		state.AddTrace(store.StageGenerate, "no generation backend available")
		state.FinalAnswer = constant.GeneratorUnavailableReply
		state.Domain = store.DomainError
		state.AddTrace(store.StageEnd, "error turn, not persisted")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return o.buildResult(state, errorTurn(state)), nil
	}
	state.AddTrace(store.StageGenerate, "draft of %d chars after %d retries", len(draft), retries)
	state.Draft = draft
	state.Grounded = grounded
	state.Citations = response.ExtractCitations(draft, retained)
	state.AddTrace(store.StageReflect, "grounded=%v", grounded)
	if !grounded {
		draft += constant.UnverifiedNoteSuffix
	}
	state.FinalAnswer = draft

	return o.persist(ctx, state)
}

// persist is the single write point of a turn. It runs on the caller's
// context, not the stage budget, so a slow pipeline still records its
// outcome; a caller that walked away gets nothing written at all.
func (o *Orchestrator) persist(ctx context.Context, state *State) (*Result, error) {
	if err := ctx.Err(); err != nil {
		o.logger.Printf("[PERSIST] Skipped, caller gone: %v", err)
		return nil, err
	}

	importance := o.policy.ScoreImportance(state.Grounded)
	turn := store.Turn{
		Query:           state.Query,
		Answer:          state.FinalAnswer,
		Domain:          state.Domain,
		Citations:       state.Citations,
		ImportanceScore: importance,
		CreatedAt:       time.Now(),
	}

	if err := o.memory.Record(ctx, state.Key, turn); err != nil {
		o.logger.Printf("[WARN] Session record failed: %v", err)
	}

	promoted := false
	var promotedMemory *entity.DurableMemory
	if o.policy.ShouldPromote(importance) {
		isNew, mem, err := o.memory.Promote(ctx, state.Key, turn)
		if err != nil {
			o.logger.Printf("[WARN] Memory promotion failed: %v", err)
		} else if isNew {
			promoted = true
			promotedMemory = mem
		}
	}

	state.AddTrace(store.StagePersist, "importance=%.1f promoted=%v", importance, promoted)
	state.AddTrace(store.StageEnd, "turn complete")
	o.logger.Printf("[PERSIST] importance=%.1f promoted=%v", importance, promoted)
	o.logger.Printf("[END] user=%s session=%s", state.Key.UserID, state.Key.SessionID)

	result := o.buildResult(state, turn)
	result.Promoted = promoted
	result.PromotedMemory = promotedMemory
	return result, nil
}

// persistClarification records the follow-up question in the session window
// (the next turn needs it for context) but never considers it for promotion.
func (o *Orchestrator) persistClarification(ctx context.Context, state *State) (*Result, error) {
	if err := ctx.Err(); err != nil {
		o.logger.Printf("[PERSIST] Skipped, caller gone: %v", err)
		return nil, err
	}

	turn := store.Turn{
		Query:     state.Query,
		Answer:    state.FinalAnswer,
		Domain:    state.Domain,
		CreatedAt: time.Now(),
	}
	if err := o.memory.Record(ctx, state.Key, turn); err != nil {
		o.logger.Printf("[WARN] Session record failed: %v", err)
	}

	state.AddTrace(store.StagePersist, "clarification recorded, no promotion")
	state.AddTrace(store.StageEnd, "turn complete")

	result := o.buildResult(state, turn)
	result.Clarification = true
	return result, nil
}

func (o *Orchestrator) buildResult(state *State, turn store.Turn) *Result {
	return &Result{
		Turn:           turn,
		Intent:         state.Intent,
		GradedPassages: state.GradedPassages,
		Grounded:       state.Grounded,
		Retries:        state.Retries,
		Trace:          state.Trace,
	}
}

func errorTurn(state *State) store.Turn {
	return store.Turn{
		Query:     state.Query,
		Answer:    state.FinalAnswer,
		Domain:    store.DomainError,
		CreatedAt: time.Now(),
	}
}

func needsClarification(intent store.ActionIntent) bool {
	return intent.Tool.Routable() && intent.Action != "" && len(intent.MissingParameters) > 0
}

// retrievalDomains narrows the search to the routed domain; general QA
// searches everything the caller may see. Reaching here implies a routable
// intent already passed the access check.
func retrievalDomains(intent store.ActionIntent, allowedDomains []string) []string {
	if intent.Tool.Routable() {
		return []string{string(intent.Tool)}
	}
	return allowedDomains
}

func deniedReply(domain store.Domain) string {
	return fmt.Sprintf("I'm not able to help with %s requests: your account does not have access to that domain. Please contact your administrator if you believe this is a mistake.", domainLabel(domain))
}

func domainLabel(domain store.Domain) string {
	switch domain {
	case store.DomainIT:
		return "IT service desk"
	case store.DomainDev:
		return "developer support"
	case store.DomainHR:
		return "HR operations"
	default:
		return string(domain)
	}
}

// parameterQuestions phrases each missing parameter as the thing to ask for.
var parameterQuestions = map[string]string{
	"confirm":       "confirmation that you want a support ticket created",
	"issue":         "a short description of the issue",
	"ticket_id":     "the ticket id (for example INC20260401A1B2C3)",
	"software_name": "the name of the software you need",
	"start_date":    "the start date (YYYY-MM-DD)",
	"end_date":      "the end date (YYYY-MM-DD)",
	"policy_name":   "which policy you are asking about",
	"module":        "which module you want explained",
	"issue_type":    "the type of issue (for example null pointer or memory leak)",
	"api_name":      "which API you need documentation for",
}

func clarificationReply(intent store.ActionIntent) string {
	missing := intent.MissingParameters
	if intent.Action == tools.ActionCreateTicket && len(missing) == 1 && missing[0] == "confirm" {
		return "It sounds like you're running into a technical issue. Would you like me to create a support ticket for it?"
	}

	asks := make([]string, 0, len(missing))
	for _, name := range missing {
		if question, ok := parameterQuestions[name]; ok {
			asks = append(asks, question)
		} else {
			asks = append(asks, name)
		}
	}
	return fmt.Sprintf("Before I can proceed with the %s, I need %s.",
		strings.ReplaceAll(intent.Action, "_", " "), joinNaturally(asks))
}

func joinNaturally(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
