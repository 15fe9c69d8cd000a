package store

import (
	"time"

	"github.com/google/uuid"
)

// Domain is the closed set of task categories the assistant can route to.
// Adding a domain means adding a constant here and a case to every exhaustive
// switch over it; there is no dynamic registry.
type Domain string

const (
	DomainIT    Domain = "it"
	DomainDev   Domain = "dev"
	DomainHR    Domain = "hr"
	DomainNone  Domain = "none"
	DomainError Domain = "error"
)

// Valid reports whether d is one of the routable domains (it/dev/hr/none).
func (d Domain) Valid() bool {
	switch d {
	case DomainIT, DomainDev, DomainHR, DomainNone:
		return true
	}
	return false
}

// Routable reports whether d names an actual domain tool.
func (d Domain) Routable() bool {
	return d == DomainIT || d == DomainDev || d == DomainHR
}

// Turn is one completed question/answer exchange. Immutable once stored.
type Turn struct {
	Query           string    `json:"query"`
	Answer          string    `json:"answer"`
	Domain          Domain    `json:"domain"`
	Citations       []string  `json:"citations,omitempty"`
	ImportanceScore float64   `json:"importance_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// Passage is a scored chunk of an ingested document.
type Passage struct {
	SourceID string  `json:"source_id"`
	DocTitle string  `json:"doc_title"`
	Content  string  `json:"content"`
	Domain   Domain  `json:"domain"`
	Score    float64 `json:"score"`
}

// GradedPassage is a Passage plus the grader's verdict. Derived per query,
// never persisted. Keep is true only when RelevanceScore clears the
// configured threshold.
type GradedPassage struct {
	Passage
	RelevanceScore float64 `json:"relevance_score"`
	Keep           bool    `json:"keep"`
}

// Retained filters a graded set down to the passages that survived grading.
func Retained(graded []GradedPassage) []GradedPassage {
	kept := make([]GradedPassage, 0, len(graded))
	for _, g := range graded {
		if g.Keep {
			kept = append(kept, g)
		}
	}
	return kept
}

// ActionIntent is the router's single-shot classification of a query.
// Tool is DomainNone for general QA. Parameters holds whatever the router
// could extract; MissingParameters lists what the tool still needs before it
// can be invoked.
type ActionIntent struct {
	Tool              Domain            `json:"tool"`
	Action            string            `json:"action,omitempty"`
	Parameters        map[string]string `json:"parameters,omitempty"`
	MissingParameters []string          `json:"missing_parameters,omitempty"`
}

// Complete reports whether the intent names a tool action with every
// required parameter present.
func (a ActionIntent) Complete() bool {
	return a.Tool.Routable() && a.Action != "" && len(a.MissingParameters) == 0
}

// MemoryContext is what the memory tiers contribute to one turn.
type MemoryContext struct {
	Session []Turn `json:"session"`
	Durable []Turn `json:"durable"`
}

// Empty reports whether both tiers came back with nothing.
func (m MemoryContext) Empty() bool {
	return len(m.Session) == 0 && len(m.Durable) == 0
}

// Workflow stages, in pipeline order. StageEvent entries reference these.
const (
	StageStart          = "START"
	StageMemoryLoad     = "MEMORY_LOAD"
	StageRoute          = "ROUTE"
	StageActionShortcut = "ACTION_SHORTCUT"
	StageClarify        = "CLARIFY"
	StageRetrieve       = "RETRIEVE"
	StageGrade          = "GRADE"
	StageGenerate       = "GENERATE"
	StageReflect        = "REFLECT"
	StagePersist        = "PERSIST"
	StageEnd            = "END"
)

// StageEvent is one entry of the per-turn workflow trace.
type StageEvent struct {
	Stage  string    `json:"stage"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// SessionKey identifies one conversation's fast-tier window.
type SessionKey struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
}
