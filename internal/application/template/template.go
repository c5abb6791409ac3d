// Package template implements spec.md §4.6's variable substitution: a
// flat `{{token}}` replacement over a fixed set of lead-derived tokens.
// Adapted from the teacher's internal/application/executor/template.go,
// which supports nested-path lookups and expr-lang `${...}` expressions;
// this package narrows that to the spec's flat token set and its
// unresolved-token-becomes-empty-string rule.
package template

import (
	"regexp"

	"github.com/smilemakc/outreachctl/pkg/models"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_]+)\s*\}\}`)

// Tokens builds the substitution variable set from a lead's snapshot.
func Tokens(snapshot models.LeadSnapshot) map[string]string {
	return map[string]string{
		"first_name":   snapshot.FirstName,
		"last_name":    snapshot.LastName,
		"title":        snapshot.Title,
		"company_name": snapshot.CompanyName,
		"company":      snapshot.Company,
		"industry":     snapshot.Industry,
	}
}

// Render replaces every `{{token}}` occurrence in s using vars. Tokens not
// present in vars are replaced with the empty string, per spec.md §4.6.
func Render(s string, vars map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := tokenPattern.FindStringSubmatch(match)[1]
		return vars[name]
	})
}
