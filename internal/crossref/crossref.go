// Package crossref finds references to Jira issues in free text.
package crossref

import "regexp"

// jiraKeyPattern matches Jira issue keys (e.g., PROJ-123, ABC-1).
var jiraKeyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]+-\d+)\b`)

// ExtractJiraKeys returns the Jira keys found across texts, deduplicated in
// order of first occurrence.
func ExtractJiraKeys(texts ...string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, text := range texts {
		for _, m := range jiraKeyPattern.FindAllString(text, -1) {
			if seen[m] {
				continue
			}
			seen[m] = true
			keys = append(keys, m)
		}
	}
	return keys
}
