// Package sentence splits prose on terminal punctuation.
package sentence

import (
	"regexp"
	"strings"
)

var terminated = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Split returns the punctuation-terminated sentences of text followed by any
// unterminated remainder. Sentences keep their original spacing; the
// remainder is trimmed. Text without punctuation yields itself trimmed.
func Split(text string) []string {
	var out []string
	end := 0
	for _, loc := range terminated.FindAllStringIndex(text, -1) {
		out = append(out, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if rest := strings.TrimSpace(text[end:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
