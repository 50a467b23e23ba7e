package chat

import (
	"strings"

	"docschat/internal/retrieval"
)

// ExtractCitations matches the generated answer against the retrieved
// sources: a URL is cited when it appears verbatim in the answer, a header
// when it appears case-insensitively. Results keep the retrieval order
// (first match wins on duplicates) so repeated calls return identical
// lists, capped at limit.
func ExtractCitations(answer string, retrieved []retrieval.RetrievedContent, limit int) []string {
	answerLower := strings.ToLower(answer)

	seen := make(map[string]bool)
	citations := []string{}

	add := func(c string) {
		if !seen[c] && len(citations) < limit {
			seen[c] = true
			citations = append(citations, c)
		}
	}

	for _, r := range retrieved {
		if r.URL != "" && strings.Contains(answer, r.URL) {
			add(r.URL)
		}
		if r.Header != "" && strings.Contains(answerLower, strings.ToLower(r.Header)) {
			add("Section: " + r.Header)
		}
	}
	return citations
}
