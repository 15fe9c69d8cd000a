package tools

import (
	"errors"
	"fmt"

	"byteme-assistant-be/pkg/store"
)

// Tool is one domain's deterministic automation surface. Implementations
// hold no state shared with the workflow; everything they need arrives in
// the intent's parameters.
type Tool interface {
	Invoke(intent store.ActionIntent) (string, error)
	RequiredParameters(action string) []string
}

var ErrNoTool = errors.New("intent does not name a tool")

// Registry dispatches intents over the closed domain set. Adding a domain
// means adding a field here and a case to both switches; the compiler keeps
// dispatch exhaustive.
type Registry struct {
	it  *ITServiceDesk
	dev *DeveloperSupport
	hr  *HROperations
}

func NewRegistry() *Registry {
	return &Registry{
		it:  NewITServiceDesk(),
		dev: NewDeveloperSupport(),
		hr:  NewHROperations(),
	}
}

func (r *Registry) Invoke(intent store.ActionIntent) (string, error) {
	switch intent.Tool {
	case store.DomainIT:
		return r.it.Invoke(intent)
	case store.DomainDev:
		return r.dev.Invoke(intent)
	case store.DomainHR:
		return r.hr.Invoke(intent)
	case store.DomainNone:
		return "", ErrNoTool
	default:
		return "", fmt.Errorf("no tool registered for domain %q", intent.Tool)
	}
}

// RequiredParameters reports what an action needs before it can run. The
// router uses this to decide between invoking the tool and asking a
// clarifying follow-up.
func (r *Registry) RequiredParameters(tool store.Domain, action string) []string {
	switch tool {
	case store.DomainIT:
		return r.it.RequiredParameters(action)
	case store.DomainDev:
		return r.dev.RequiredParameters(action)
	case store.DomainHR:
		return r.hr.RequiredParameters(action)
	default:
		return nil
	}
}
