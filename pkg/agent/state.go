package agent

import (
	"fmt"
	"time"

	"byteme-assistant-be/pkg/store"
)

// State is the mutable record of one conversational turn. The orchestrator
// owns it; each stage fills in only the fields it is responsible for, so a
// trace reader can reconstruct exactly what every stage saw.
type State struct {
	Query          string
	Key            store.SessionKey
	AllowedDomains []string

	Memory         store.MemoryContext
	Intent         store.ActionIntent
	RawPassages    []store.Passage
	GradedPassages []store.GradedPassage

	Draft    string
	Grounded bool
	// Retries counts regenerations triggered by failed verification, not the
	// initial generation.
	Retries int

	FinalAnswer string
	Domain      store.Domain
	Citations   []string

	Trace []store.StageEvent
}

// AddTrace appends a stage event with the current timestamp.
func (s *State) AddTrace(stage string, format string, args ...interface{}) {
	s.Trace = append(s.Trace, store.StageEvent{
		Stage:  stage,
		Detail: fmt.Sprintf(format, args...),
		At:     time.Now(),
	})
}
