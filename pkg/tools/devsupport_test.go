package tools

import (
	"strings"
	"testing"

	"byteme-assistant-be/pkg/store"
)

func TestCodeExplanationLookup(t *testing.T) {
	dev := NewDeveloperSupport()

	tests := []struct {
		module string
		want   string
	}{
		{"auth module", "JWT tokens"},
		{"data pipeline", "ETL pipeline"},
		{"billing engine", "not found"},
	}

	for _, tt := range tests {
		out, err := dev.Invoke(store.ActionIntent{
			Tool:       store.DomainDev,
			Action:     ActionCodeExplanation,
			Parameters: map[string]string{"module": tt.module},
		})
		if err != nil {
			t.Fatalf("Invoke(%q): %v", tt.module, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("code_explanation(%q) missing %q:\n%s", tt.module, tt.want, out)
		}
	}
}

func TestSuggestFixLookup(t *testing.T) {
	dev := NewDeveloperSupport()

	tests := []struct {
		issue string
		want  string
	}{
		{"null pointer", "null checks"},
		{"race-condition", "synchronization"},
		{"sql injection", "parameterized queries"},
		{"heisenbug", "No specific fix found"},
	}

	for _, tt := range tests {
		out, err := dev.Invoke(store.ActionIntent{
			Tool:       store.DomainDev,
			Action:     ActionSuggestFix,
			Parameters: map[string]string{"issue_type": tt.issue},
		})
		if err != nil {
			t.Fatalf("Invoke(%q): %v", tt.issue, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("suggest_fix(%q) missing %q:\n%s", tt.issue, tt.want, out)
		}
	}
}

func TestAPIDocsLookup(t *testing.T) {
	dev := NewDeveloperSupport()

	out, err := dev.Invoke(store.ActionIntent{
		Tool:       store.DomainDev,
		Action:     ActionAPIDocs,
		Parameters: map[string]string{"api_name": "user api"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !strings.Contains(out, "/api/v1/users") {
		t.Errorf("api_docs output missing base url:\n%s", out)
	}
}

func TestReviewChecklistLanguages(t *testing.T) {
	dev := NewDeveloperSupport()

	tests := []struct {
		language string
		want     string
	}{
		{"go", "race detector"},
		{"python", "PEP 8"},
		{"javascript", "const/let"},
		{"cobol", "general"},
		{"", "general"},
	}

	for _, tt := range tests {
		out, err := dev.Invoke(store.ActionIntent{
			Tool:       store.DomainDev,
			Action:     ActionCodeReview,
			Parameters: map[string]string{"language": tt.language},
		})
		if err != nil {
			t.Fatalf("Invoke(%q): %v", tt.language, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("code_review(%q) missing %q:\n%s", tt.language, tt.want, out)
		}
	}
}
