package journal

import (
	"strings"
	"unicode/utf8"
)

// Metrics are the derived content measurements stored on index records.
type Metrics struct {
	WordCount      int
	CharacterCount int
	LineCount      int
	HasContent     bool
}

// ComputeMetrics measures entry content. Words are whitespace-delimited
// tokens; characters are counted as runes; an entry has content when it is
// non-empty after trimming whitespace.
func ComputeMetrics(content string) Metrics {
	m := Metrics{
		WordCount:      len(strings.Fields(content)),
		CharacterCount: utf8.RuneCountInString(content),
		HasContent:     strings.TrimSpace(content) != "",
	}
	if content != "" {
		m.LineCount = strings.Count(content, "\n") + 1
		if strings.HasSuffix(content, "\n") {
			m.LineCount--
		}
	}
	return m
}
