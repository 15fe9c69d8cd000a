package agent

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"byteme-assistant-be/internal/constant"
	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/pkg/agent/reflection"
	"byteme-assistant-be/pkg/store"

	"github.com/google/uuid"
)

type fakeMemory struct {
	loaded     store.MemoryContext
	recorded   []store.Turn
	promotions []store.Turn
	promoteNew bool
	recordErr  error
	promoteErr error
}

func (f *fakeMemory) Load(ctx context.Context, key store.SessionKey, query string) store.MemoryContext {
	return f.loaded
}

func (f *fakeMemory) Record(ctx context.Context, key store.SessionKey, turn store.Turn) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, turn)
	return nil
}

func (f *fakeMemory) Promote(ctx context.Context, key store.SessionKey, turn store.Turn) (bool, *entity.DurableMemory, error) {
	if f.promoteErr != nil {
		return false, nil, f.promoteErr
	}
	f.promotions = append(f.promotions, turn)
	return f.promoteNew, &entity.DurableMemory{
		UserId:     key.UserID,
		Content:    turn.Query,
		Importance: turn.ImportanceScore,
	}, nil
}

type fakeClassifier struct {
	intent store.ActionIntent
	denied store.Domain
}

func (f *fakeClassifier) Classify(ctx context.Context, query string, allowedDomains []string) (store.ActionIntent, store.Domain) {
	return f.intent, f.denied
}

type fakeInvoker struct {
	output string
	err    error
	calls  int
}

func (f *fakeInvoker) Invoke(intent store.ActionIntent) (string, error) {
	f.calls++
	return f.output, f.err
}

type fakeRetriever struct {
	passages   []store.Passage
	err        error
	calls      int
	gotDomains []string
	gotQuery   string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, domains []string, query string) ([]store.Passage, error) {
	f.calls++
	f.gotDomains = domains
	f.gotQuery = query
	return f.passages, f.err
}

// fakeGrader keeps every passage unless drop names its source id.
type fakeGrader struct {
	drop map[string]bool
}

func (f *fakeGrader) Grade(ctx context.Context, query string, passages []store.Passage) []store.GradedPassage {
	graded := make([]store.GradedPassage, 0, len(passages))
	for _, p := range passages {
		keep := !f.drop[p.SourceID]
		score := 1.0
		if !keep {
			score = 0.0
		}
		graded = append(graded, store.GradedPassage{Passage: p, RelevanceScore: score, Keep: keep})
	}
	return graded
}

type fakeGenerator struct {
	drafts      []string
	errs        []error
	calls       int
	guidances   []string
	gotPassages [][]store.GradedPassage
}

func (f *fakeGenerator) Generate(ctx context.Context, query string, domain store.Domain, passages []store.GradedPassage, memory store.MemoryContext, guidance string) (string, error) {
	i := f.calls
	f.calls++
	f.guidances = append(f.guidances, guidance)
	f.gotPassages = append(f.gotPassages, passages)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	draft := "draft"
	if i < len(f.drafts) {
		draft = f.drafts[i]
	}
	return draft, err
}

type fakeVerifier struct {
	verdicts []reflection.Verdict
	calls    int
}

func (f *fakeVerifier) Verify(ctx context.Context, draft string, passages []store.GradedPassage) reflection.Verdict {
	i := f.calls
	f.calls++
	if i < len(f.verdicts) {
		return f.verdicts[i]
	}
	return reflection.Verdict{Pass: true}
}

type staticRewriter struct{ out string }

func (s *staticRewriter) Rewrite(ctx context.Context, question string) string { return s.out }

type deps struct {
	memory     *fakeMemory
	classifier *fakeClassifier
	invoker    *fakeInvoker
	retriever  *fakeRetriever
	grader     *fakeGrader
	generator  *fakeGenerator
	verifier   *fakeVerifier
	rewriter   Rewriter
}

func newDeps() *deps {
	return &deps{
		memory:     &fakeMemory{promoteNew: true},
		classifier: &fakeClassifier{intent: store.ActionIntent{Tool: store.DomainNone}},
		invoker:    &fakeInvoker{output: "tool output"},
		retriever:  &fakeRetriever{},
		grader:     &fakeGrader{},
		generator:  &fakeGenerator{},
		verifier:   &fakeVerifier{},
	}
}

func newTestOrchestrator(d *deps) *Orchestrator {
	return NewOrchestrator(
		DefaultConfig(),
		d.memory,
		d.classifier,
		d.invoker,
		d.rewriter,
		d.retriever,
		d.grader,
		d.generator,
		d.verifier,
		log.New(io.Discard, "", 0),
	)
}

func testKey() store.SessionKey {
	return store.SessionKey{UserID: uuid.New(), SessionID: uuid.New()}
}

var allDomains = []string{"it", "dev", "hr"}

func tracedStages(trace []store.StageEvent) []string {
	stages := make([]string, 0, len(trace))
	for _, ev := range trace {
		stages = append(stages, ev.Stage)
	}
	return stages
}

func countStage(trace []store.StageEvent, stage string) int {
	n := 0
	for _, ev := range trace {
		if ev.Stage == stage {
			n++
		}
	}
	return n
}

func TestShortcutBypassesRetrievalAndGeneration(t *testing.T) {
	d := newDeps()
	d.classifier.intent = store.ActionIntent{
		Tool:       store.DomainIT,
		Action:     "password_reset",
		Parameters: map[string]string{},
	}
	d.invoker.output = "Password reset initiated for VPN."
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "reset my vpn password", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Turn.Answer != d.invoker.output {
		t.Errorf("answer = %q, want the tool output verbatim", result.Turn.Answer)
	}
	if result.Turn.Domain != store.DomainIT {
		t.Errorf("domain = %s, want it", result.Turn.Domain)
	}
	if !result.Grounded {
		t.Error("deterministic tool output counts as grounded")
	}
	if d.retriever.calls != 0 {
		t.Error("shortcut must skip retrieval")
	}
	if d.generator.calls != 0 {
		t.Error("shortcut must skip generation")
	}
	if len(d.memory.recorded) != 1 {
		t.Fatalf("recorded %d turns, want 1", len(d.memory.recorded))
	}
	if result.Turn.ImportanceScore != 0.7 {
		t.Errorf("importance = %v, want 0.7", result.Turn.ImportanceScore)
	}
	if !result.Promoted {
		t.Error("grounded tool turn should promote")
	}
	if countStage(result.Trace, store.StageActionShortcut) != 1 {
		t.Errorf("trace missing shortcut stage: %v", tracedStages(result.Trace))
	}
	if countStage(result.Trace, store.StageRetrieve) != 0 {
		t.Errorf("trace must not contain retrieval: %v", tracedStages(result.Trace))
	}
}

func TestClarificationTurn(t *testing.T) {
	d := newDeps()
	d.classifier.intent = store.ActionIntent{
		Tool:              store.DomainIT,
		Action:            "create_ticket",
		Parameters:        map[string]string{"issue": "I can't connect to the VPN"},
		MissingParameters: []string{"confirm"},
	}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "I can't connect to the VPN", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Clarification {
		t.Fatal("expected a clarification turn")
	}
	if !strings.Contains(result.Turn.Answer, "support ticket") {
		t.Errorf("clarification should ask about the ticket, got %q", result.Turn.Answer)
	}
	if d.invoker.calls != 0 || d.retriever.calls != 0 || d.generator.calls != 0 {
		t.Error("clarification must short-circuit the pipeline")
	}
	if len(d.memory.recorded) != 1 {
		t.Errorf("clarification belongs in the session window, recorded %d", len(d.memory.recorded))
	}
	if len(d.memory.promotions) != 0 {
		t.Error("clarifications must never promote")
	}
	if countStage(result.Trace, store.StageClarify) != 1 {
		t.Errorf("trace missing clarify stage: %v", tracedStages(result.Trace))
	}
}

func TestDeniedDomainTurn(t *testing.T) {
	d := newDeps()
	d.classifier.intent = store.ActionIntent{Tool: store.DomainNone}
	d.classifier.denied = store.DomainHR
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "apply for leave", testKey(), []string{"it"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Turn.Answer, "HR operations") {
		t.Errorf("denial should name the domain, got %q", result.Turn.Answer)
	}
	if !strings.Contains(result.Turn.Answer, "does not have access") {
		t.Errorf("denial should explain the access gap, got %q", result.Turn.Answer)
	}
	if d.invoker.calls != 0 || d.retriever.calls != 0 || d.generator.calls != 0 {
		t.Error("denied turns must not reach tools or retrieval")
	}
	if len(d.memory.recorded) != 1 {
		t.Errorf("denied turn should still land in the session window, recorded %d", len(d.memory.recorded))
	}
	if len(d.memory.promotions) != 0 {
		t.Error("denied turns score 0.4 and must not promote")
	}
}

func TestFullPipelineGroundedAnswer(t *testing.T) {
	d := newDeps()
	d.retriever.passages = []store.Passage{
		{SourceID: "p1", DocTitle: "VPN Guide", Content: "Use vpn.corp.example", Domain: store.DomainIT},
		{SourceID: "p2", DocTitle: "FAQ", Content: "Wifi is Corp-5G", Domain: store.DomainIT},
	}
	d.generator.drafts = []string{"Connect to vpn.corp.example [S1]."}
	o := newTestOrchestrator(d)

	key := testKey()
	result, err := o.Run(context.Background(), "how do I connect to the vpn?", key, allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Grounded {
		t.Error("expected a grounded answer")
	}
	if strings.Contains(result.Turn.Answer, "⚠️") {
		t.Error("grounded answer must not carry the unverified note")
	}
	if len(result.Turn.Citations) != 1 || result.Turn.Citations[0] != "p1" {
		t.Errorf("citations = %v, want [p1]", result.Turn.Citations)
	}
	if result.Turn.ImportanceScore != 0.7 {
		t.Errorf("importance = %v, want 0.7", result.Turn.ImportanceScore)
	}
	if !result.Promoted {
		t.Error("grounded answer should promote")
	}
	if d.retriever.gotQuery != "how do I connect to the vpn?" {
		t.Errorf("retriever got query %q", d.retriever.gotQuery)
	}
	if len(d.retriever.gotDomains) != len(allDomains) {
		t.Errorf("general QA should search all allowed domains, got %v", d.retriever.gotDomains)
	}
	for _, stage := range []string{store.StageStart, store.StageMemoryLoad, store.StageRoute, store.StageRetrieve, store.StageGrade, store.StageGenerate, store.StageReflect, store.StagePersist, store.StageEnd} {
		if countStage(result.Trace, stage) != 1 {
			t.Errorf("trace should contain %s exactly once: %v", stage, tracedStages(result.Trace))
		}
	}
}

func TestRoutedQANarrowsRetrievalDomain(t *testing.T) {
	d := newDeps()
	d.classifier.intent = store.ActionIntent{Tool: store.DomainIT}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "what is the vpn hostname?", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(d.retriever.gotDomains) != 1 || d.retriever.gotDomains[0] != "it" {
		t.Errorf("routed QA should search only its domain, got %v", d.retriever.gotDomains)
	}
	if result.Turn.Domain != store.DomainIT {
		t.Errorf("turn domain = %s, want it", result.Turn.Domain)
	}
}

func TestRewriterFeedsRetrieval(t *testing.T) {
	d := newDeps()
	d.rewriter = &staticRewriter{out: "vpn hostname configuration"}
	o := newTestOrchestrator(d)

	if _, err := o.Run(context.Background(), "hey, so what was that vpn thing called again?", testKey(), allDomains); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.retriever.gotQuery != "vpn hostname configuration" {
		t.Errorf("retriever got %q, want the rewritten query", d.retriever.gotQuery)
	}
}

func TestFilteredPassagesExcludedFromGeneration(t *testing.T) {
	d := newDeps()
	d.retriever.passages = []store.Passage{
		{SourceID: "keep", Content: "relevant"},
		{SourceID: "drop", Content: "irrelevant"},
	}
	d.grader.drop = map[string]bool{"drop": true}
	d.generator.drafts = []string{"answer [S1]"}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "q", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(d.generator.gotPassages[0]) != 1 || d.generator.gotPassages[0][0].SourceID != "keep" {
		t.Errorf("generator saw %v, want only the kept passage", d.generator.gotPassages[0])
	}
	if len(result.Turn.Citations) != 1 || result.Turn.Citations[0] != "keep" {
		t.Errorf("citations = %v, filtered passages must never be citable", result.Turn.Citations)
	}
	if len(result.GradedPassages) != 2 {
		t.Errorf("diagnostic record should keep all graded passages, got %d", len(result.GradedPassages))
	}
}

func TestReflectRetriesBoundedAndPersistOnce(t *testing.T) {
	d := newDeps()
	fail := reflection.Verdict{Pass: false, Reason: "unsupported"}
	d.verifier.verdicts = []reflection.Verdict{fail, fail, fail}
	d.generator.drafts = []string{"v1", "v2", "v3"}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "q", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.generator.calls != 3 {
		t.Errorf("generator calls = %d, want 3 (initial + 2 retries)", d.generator.calls)
	}
	if result.Retries != 2 {
		t.Errorf("retries = %d, want 2", result.Retries)
	}
	if result.Grounded {
		t.Error("exhausted verification must report ungrounded")
	}
	if !strings.HasPrefix(result.Turn.Answer, "v3") {
		t.Errorf("answer should be the last draft, got %q", result.Turn.Answer)
	}
	if !strings.Contains(result.Turn.Answer, constant.UnverifiedNoteSuffix) {
		t.Error("ungrounded answer must carry the unverified note")
	}
	if result.Turn.ImportanceScore != 0.4 {
		t.Errorf("importance = %v, want 0.4", result.Turn.ImportanceScore)
	}
	if len(d.memory.recorded) != 1 {
		t.Errorf("persist must happen exactly once, recorded %d", len(d.memory.recorded))
	}
	if len(d.memory.promotions) != 0 {
		t.Error("0.4 importance must not promote")
	}
	if countStage(result.Trace, store.StagePersist) != 1 {
		t.Errorf("trace should contain PERSIST exactly once: %v", tracedStages(result.Trace))
	}
}

func TestRegenerationCarriesVerdictReason(t *testing.T) {
	d := newDeps()
	d.verifier.verdicts = []reflection.Verdict{
		{Pass: false, Reason: "claim not in sources"},
		{Pass: true},
	}
	d.generator.drafts = []string{"v1", "v2"}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "q", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Retries != 1 || !result.Grounded {
		t.Errorf("retries=%d grounded=%v, want 1/true", result.Retries, result.Grounded)
	}
	if d.generator.guidances[1] != "claim not in sources" {
		t.Errorf("guidance = %q, want the verdict reason", d.generator.guidances[1])
	}
}

func TestGeneratorOutageProducesErrorTurnWithoutPersist(t *testing.T) {
	d := newDeps()
	d.generator.errs = []error{errors.New("all backends down")}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "q", testKey(), allDomains)
	if err != nil {
		t.Fatalf("outage is a turn, not an error: %v", err)
	}

	if result.Turn.Domain != store.DomainError {
		t.Errorf("domain = %s, want error", result.Turn.Domain)
	}
	if result.Turn.Answer != constant.GeneratorUnavailableReply {
		t.Errorf("answer = %q, want the deterministic outage reply", result.Turn.Answer)
	}
	if len(d.memory.recorded) != 0 {
		t.Error("error turns must not be recorded")
	}
	if len(d.memory.promotions) != 0 {
		t.Error("error turns must not promote")
	}
}

func TestRetrievalOutageDegradesToMemoryOnly(t *testing.T) {
	d := newDeps()
	d.retriever.err = errors.New("database unreachable")
	d.memory.loaded = store.MemoryContext{
		Session: []store.Turn{{Query: "earlier", Answer: "context"}},
	}
	d.generator.drafts = []string{"answer from memory"}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "q", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(d.generator.gotPassages[0]) != 0 {
		t.Errorf("generator should see no passages, got %d", len(d.generator.gotPassages[0]))
	}
	if !strings.HasPrefix(result.Turn.Answer, "answer from memory") {
		t.Errorf("answer = %q", result.Turn.Answer)
	}
	if len(result.Turn.Citations) != 0 {
		t.Errorf("memory-only answer cannot cite, got %v", result.Turn.Citations)
	}
}

func TestToolFailureFallsBackToRetrieval(t *testing.T) {
	d := newDeps()
	d.classifier.intent = store.ActionIntent{
		Tool:       store.DomainHR,
		Action:     "leave_balance",
		Parameters: map[string]string{},
	}
	d.invoker.err = errors.New("tool panic")
	d.generator.drafts = []string{"fallback answer"}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "leave balance?", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.retriever.calls != 1 {
		t.Error("failed tool should fall back to retrieval")
	}
	if !strings.HasPrefix(result.Turn.Answer, "fallback answer") {
		t.Errorf("answer = %q", result.Turn.Answer)
	}
	if result.Turn.Domain != store.DomainHR {
		t.Errorf("domain = %s, want hr", result.Turn.Domain)
	}
}

func TestCallerCancellationPersistsNothing(t *testing.T) {
	d := newDeps()
	d.generator.drafts = []string{"answer"}
	o := newTestOrchestrator(d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Run(ctx, "q", testKey(), allDomains)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if result != nil {
		t.Error("abandoned turns return nothing")
	}
	if len(d.memory.recorded) != 0 || len(d.memory.promotions) != 0 {
		t.Error("abandoned turns must write nothing")
	}
}

func TestDuplicatePromotionReportsFalse(t *testing.T) {
	d := newDeps()
	d.memory.promoteNew = false
	d.generator.drafts = []string{"answer"}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "q", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(d.memory.promotions) != 1 {
		t.Fatalf("promotion should be attempted once, got %d", len(d.memory.promotions))
	}
	if result.Promoted {
		t.Error("content-hash duplicate must not report a new promotion")
	}
	if result.PromotedMemory != nil {
		t.Error("no new memory to expose on a duplicate")
	}
}

func TestMemoryOutagesDoNotFailTheTurn(t *testing.T) {
	d := newDeps()
	d.memory.recordErr = errors.New("redis down")
	d.memory.promoteErr = errors.New("postgres down")
	d.generator.drafts = []string{"answer"}
	o := newTestOrchestrator(d)

	result, err := o.Run(context.Background(), "q", testKey(), allDomains)
	if err != nil {
		t.Fatalf("memory outage must degrade, not fail: %v", err)
	}
	if !strings.HasPrefix(result.Turn.Answer, "answer") {
		t.Errorf("answer = %q", result.Turn.Answer)
	}
	if result.Promoted {
		t.Error("failed promotion must not be reported as promoted")
	}
}

func TestTurnTimestampsAreRecent(t *testing.T) {
	d := newDeps()
	d.generator.drafts = []string{"answer"}
	o := newTestOrchestrator(d)

	before := time.Now()
	result, err := o.Run(context.Background(), "q", testKey(), allDomains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Turn.CreatedAt.Before(before) {
		t.Error("turn timestamp predates the run")
	}
}
