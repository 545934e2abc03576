package app

import "strings"

// FormatResponse trims each line of an LLM response, drops blank lines and
// separates the remaining lines with one empty line.
func FormatResponse(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n\n")
}
