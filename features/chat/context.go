package chat

import (
	"fmt"
	"strings"

	"docschat/internal/retrieval"
)

// Highlight placement relative to the retrieved-content block. The two
// shipped iterations of this backend disagreed on the order, so it is a
// named option rather than a constant.
const (
	HighlightBefore = "before"
	HighlightAfter  = "after"
)

type ContextOptions struct {
	HighlightPlacement string
	MaxSelections      int
	MaxMessages        int
	ExcerptChars       int
}

// BuildPromptContext assembles the ordered text blocks sent to the
// generation service: system instruction first, then retrieved content and
// highlighted text (order per HighlightPlacement), then recent
// conversation. Only the most recent MaxSelections selections and
// MaxMessages messages are included, which bounds the prompt size
// regardless of session age. Blocks are joined with blank lines.
func BuildPromptContext(systemPrompt string, retrieved []retrieval.RetrievedContent, selections []Selection, history []Message, opts ContextOptions) string {
	parts := []string{systemPrompt}

	retrievedParts := retrievedBlock(retrieved, opts.ExcerptChars)
	highlightParts := highlightBlock(selections, opts.MaxSelections)

	if opts.HighlightPlacement == HighlightBefore {
		parts = append(parts, highlightParts...)
		parts = append(parts, retrievedParts...)
	} else {
		parts = append(parts, retrievedParts...)
		parts = append(parts, highlightParts...)
	}

	if len(history) > 0 {
		parts = append(parts, "Previous conversation:")
		start := len(history) - opts.MaxMessages
		if start < 0 {
			start = 0
		}
		for _, msg := range history[start:] {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.ToUpper(msg.Role), msg.Content))
		}
	}

	return strings.Join(parts, "\n\n")
}

func retrievedBlock(retrieved []retrieval.RetrievedContent, excerptChars int) []string {
	if len(retrieved) == 0 {
		return nil
	}
	parts := []string{"Relevant documentation content:"}
	for _, r := range retrieved {
		parts = append(parts,
			fmt.Sprintf("Source: %s", r.URL),
			fmt.Sprintf("Section: %s", r.Header),
			fmt.Sprintf("Content: %s", excerpt(r.Content, excerptChars)),
		)
	}
	return parts
}

func highlightBlock(selections []Selection, max int) []string {
	if len(selections) == 0 {
		return nil
	}
	parts := []string{"User-highlighted text (primary context):"}
	start := len(selections) - max
	if start < 0 {
		start = 0
	}
	for _, sel := range selections[start:] {
		parts = append(parts, fmt.Sprintf("Highlighted: %s", sel.Text))
	}
	return parts
}

// excerpt truncates to at most max runes, never splitting a multibyte
// character, and marks the cut with an ellipsis.
func excerpt(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
