package search

import "strings"

// defaultSnippetLength is used when Options.SnippetLength is unset.
const defaultSnippetLength = 150

// extractSnippet returns a window of content around the first query term
// it can find (terms shorter than 3 characters are skipped as too generic
// to anchor a snippet on), falling back to the start of content when no
// term matches. Matches original_source's extract_relevant_snippet:
// centers the match in the window, then trims to the nearest word boundary
// and adds ellipses on whichever side was cut.
func extractSnippet(content, query string, length int) string {
	if length <= 0 {
		length = defaultSnippetLength
	}
	if content == "" {
		return ""
	}
	if query == "" {
		return truncateWithEllipsis(content, length)
	}

	lowerContent := strings.ToLower(content)
	bestPos := -1
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if len(term) < 3 {
			continue
		}
		pos := strings.Index(lowerContent, term)
		if pos != -1 && (bestPos == -1 || pos < bestPos) {
			bestPos = pos
		}
	}

	if bestPos == -1 {
		return truncateWithEllipsis(content, length)
	}

	half := length / 2
	start := bestPos - half
	if start < 0 {
		start = 0
	}
	end := start + length
	if end > len(content) {
		end = len(content)
	}
	if end == len(content) && end-start < length {
		start = end - length
		if start < 0 {
			start = 0
		}
	}

	snippet := content[start:end]

	if start > 0 {
		if sp := strings.Index(snippet, " "); sp > 0 && sp < 30 {
			snippet = "..." + snippet[sp:]
		} else {
			snippet = "..." + snippet
		}
	}
	if end < len(content) {
		if sp := strings.LastIndex(snippet, " "); sp > len(snippet)-30 {
			snippet = snippet[:sp] + "..."
		} else {
			snippet = snippet + "..."
		}
	}

	return strings.TrimSpace(snippet)
}

func truncateWithEllipsis(content string, length int) string {
	if len(content) <= length {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(content[:length]) + "..."
}
