package main

import (
	"regexp"
	"strings"
)

// Dated snapshots such as gpt-4o-2024-08-06 or gpt-3.5-turbo-0125.
var reSnapshotSuffix = regexp.MustCompile(`-(\d{4}-\d{2}-\d{2}|\d{4})$`)

// displayModelName shortens a model identifier for the header and listings.
// GitHub Models ids lose their publisher, Ollama tags lose ":latest" and
// OpenAI snapshot dates are dropped.
func displayModelName(provider, name string) string {
	name = strings.TrimSpace(name)
	switch provider {
	case "ollama":
		return strings.TrimSuffix(name, ":latest")
	case "github-models":
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
	}
	return reSnapshotSuffix.ReplaceAllString(name, "")
}
