package tools

import (
	"fmt"
	"strings"

	"byteme-assistant-be/pkg/store"
)

// Developer support actions.
const (
	ActionCodeExplanation = "code_explanation"
	ActionSuggestFix      = "suggest_fix"
	ActionAPIDocs         = "api_docs"
	ActionCodeReview      = "code_review"
)

// DeveloperSupport serves legacy module documentation, common-issue fixes,
// internal API docs and review checklists.
type DeveloperSupport struct {
	moduleOrder []string
	moduleDocs  map[string]string
	fixOrder    []string
	commonFixes map[string]string
	apiOrder    []string
	apiDocs     map[string]string
}

var _ Tool = &DeveloperSupport{}

func NewDeveloperSupport() *DeveloperSupport {
	return &DeveloperSupport{
		moduleOrder: []string{"auth_module", "data_pipeline"},
		moduleDocs: map[string]string{
			"auth_module": `Authentication Module (v2.3.1)

Handles user authentication using JWT tokens.

Functions:
- authenticate_user(username, password) -> dict
  Validates user credentials and returns a JWT token.
  Returns: {"token": ..., "expires_at": ...}
- verify_token(token) -> bool
  Validates a JWT token and checks expiration.

Dependencies: PyJWT, bcrypt, redis
Last updated: 2024-06-15`,
			"data_pipeline": `Data Pipeline Module (v1.8.0)

ETL pipeline for processing customer data.

Functions:
- extract_data(source, query) -> DataFrame
  Extracts data from the named source connection.
- transform_data(df, rules) -> DataFrame
  Applies transformation rules to a dataframe.

Dependencies: pandas, sqlalchemy, apache-airflow
Last updated: 2024-08-20`,
		},
		fixOrder: []string{"null_pointer", "memory_leak", "sql_injection", "race_condition"},
		commonFixes: map[string]string{
			"null_pointer": `Null Pointer / None Reference Error

Solution: Add null checks before accessing object properties.

Example:
  // Before (problematic)
  result = obj.property.value
  // After (fixed)
  if obj != nil && obj.property != nil { result = obj.property.value }

Prevention: Validate inputs at boundaries and return early on missing values.`,
			"memory_leak": `Memory Leak Issues

Solution: Properly close resources when done with them.

Example:
  // Before (problematic)
  f, _ := os.Open("file.txt")
  data, _ := io.ReadAll(f) // file never closed
  // After (fixed)
  f, err := os.Open("file.txt")
  defer f.Close()

Prevention: Pair every acquisition with a deferred release.`,
			"sql_injection": `SQL Injection Vulnerability

Solution: Use parameterized queries instead of string concatenation.

Example:
  // Before (vulnerable)
  query := "SELECT * FROM users WHERE id = " + userID
  // After (secure)
  db.Query("SELECT * FROM users WHERE id = ?", userID)

Prevention: Never concatenate user input into SQL queries.`,
			"race_condition": `Race Condition in Concurrent Code

Solution: Use proper synchronization around shared state.

Example:
  // Before (race condition)
  counter++
  // After (safe)
  mu.Lock()
  counter++
  mu.Unlock()

Prevention: Guard shared mutable state with a lock, or use channels to serialize access.`,
		},
		apiOrder: []string{"user_api"},
		apiDocs: map[string]string{
			"user_api": `User Management API (base: /api/v1/users)
Authentication: Bearer token required in Authorization header.

- GET / — list all users. Parameters: page (optional), limit (optional).
  Response: {"users": [...], "total": n}
- GET /{id} — get user by ID.
  Response: {"id": ..., "name": ..., "email": ...}
- POST / — create new user. Body: {"name": ..., "email": ..., "role": ...}
  Response: {"id": ..., "created_at": ...}`,
		},
	}
}

func (t *DeveloperSupport) Invoke(intent store.ActionIntent) (string, error) {
	p := intent.Parameters
	switch intent.Action {
	case ActionCodeExplanation:
		return t.codeExplanation(p["module"]), nil
	case ActionSuggestFix:
		return t.suggestFix(p["issue_type"]), nil
	case ActionAPIDocs:
		return t.apiDocumentation(p["api_name"]), nil
	case ActionCodeReview:
		return t.reviewChecklist(p["language"]), nil
	default:
		return "", fmt.Errorf("unknown developer support action %q", intent.Action)
	}
}

func (t *DeveloperSupport) RequiredParameters(action string) []string {
	switch action {
	case ActionCodeExplanation:
		return []string{"module"}
	case ActionSuggestFix:
		return []string{"issue_type"}
	case ActionAPIDocs:
		return []string{"api_name"}
	default:
		return nil
	}
}

func (t *DeveloperSupport) codeExplanation(module string) string {
	moduleKey := strings.ReplaceAll(strings.ToLower(module), " ", "_")
	for _, key := range t.moduleOrder {
		if strings.Contains(moduleKey, key) || strings.Contains(key, moduleKey) ||
			strings.Contains(strings.ToLower(t.moduleDocs[key]), moduleKey) {
			return t.moduleDocs[key]
		}
	}
	return fmt.Sprintf("Documentation for %q not found. Available modules: %s.",
		module, strings.Join(t.moduleOrder, ", "))
}

func (t *DeveloperSupport) suggestFix(issueType string) string {
	issueKey := strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(issueType), " ", "_"), "-", "_")
	for _, key := range t.fixOrder {
		if strings.Contains(issueKey, key) || strings.Contains(key, issueKey) {
			return t.commonFixes[key]
		}
	}
	return fmt.Sprintf("No specific fix found for %q. Known issue types: %s. "+
		"Please describe your issue in more detail or create a support ticket.",
		issueType, strings.Join(t.fixOrder, ", "))
}

func (t *DeveloperSupport) apiDocumentation(apiName string) string {
	apiKey := strings.ReplaceAll(strings.ToLower(apiName), " ", "_")
	for _, key := range t.apiOrder {
		if strings.Contains(apiKey, key) || strings.Contains(key, apiKey) ||
			strings.Contains(strings.ToLower(t.apiDocs[key]), apiKey) {
			return t.apiDocs[key]
		}
	}
	return fmt.Sprintf("API documentation for %q not found. Available APIs: %s.",
		apiName, strings.Join(t.apiOrder, ", "))
}

func (t *DeveloperSupport) reviewChecklist(language string) string {
	switch strings.ToLower(language) {
	case "go", "golang":
		return `Code review checklist (Go):
- Handle every returned error; no discarded errors without a reason
- Check goroutine lifetimes and channel closure
- Context propagation on blocking calls
- Defer releases next to acquisitions
- Table-driven tests for new logic
- No data races (run the race detector)
- Exported identifiers documented
- No hard-coded credentials`
	case "python":
		return `Code review checklist (Python):
- Follow PEP 8 style guidelines
- Use type hints for function signatures
- Write docstrings for public functions/classes
- Handle exceptions appropriately
- Use context managers for resources
- Avoid mutable default arguments
- Write unit tests for new code
- Check for security vulnerabilities`
	case "javascript", "js":
		return `Code review checklist (JavaScript):
- Use const/let instead of var
- Handle promises/async properly
- Use strict equality (===)
- Sanitize user inputs
- Handle errors in async code
- Write unit tests
- Check for XSS vulnerabilities
- Review bundle size impact`
	default:
		return `Code review checklist (general):
- Code is readable and well-documented
- Functions are single-purpose and small
- Error handling is comprehensive
- No security vulnerabilities
- Unit tests are included
- No hard-coded credentials
- Logging is appropriate
- Performance is acceptable`
	}
}
