package model

import "strings"

const (
	// DefaultTag is assigned to notes created without tags.
	DefaultTag = "General"
	// MaxTagLength bounds a single tag.
	MaxTagLength = 100
)

// ParseTags splits a comma-separated tag string.
func ParseTags(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates
// while keeping the first occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// JoinTags renders tags as a single comma-separated string.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
