package domain

import "strings"

// Agent is a helpdesk agent, used as an id-to-name lookup by the
// aggregation engine. Never mutated locally.
type Agent struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Group is a helpdesk agent group.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// groupSuffixes are trimmed from raw group names when building the
// canonical short name shown in reports.
var groupSuffixes = []string{" team", " support", " queue"}

// CleanName returns the canonical short name for the group: known suffixes
// stripped, blank or "Unknown" collapsed to "Other".
func (g Group) CleanName() string {
	return CleanGroupName(g.Name)
}

// CleanGroupName canonicalizes a raw group name.
func CleanGroupName(raw string) string {
	name := strings.TrimSpace(raw)
	lower := strings.ToLower(name)
	for _, suffix := range groupSuffixes {
		if strings.HasSuffix(lower, suffix) {
			name = strings.TrimSpace(name[:len(name)-len(suffix)])
			lower = strings.ToLower(name)
		}
	}
	if name == "" || strings.EqualFold(name, "unknown") {
		return "Other"
	}
	return name
}
