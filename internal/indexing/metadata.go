package indexing

import "strings"

// EstimateTokens estimates the token count for a text string
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// ExtractKeywords extracts key terms from a heading and the start of the
// section body.
func ExtractKeywords(heading, content string) []string {
	words := strings.Fields(strings.ToLower(heading))

	contentPreview := content
	if len(content) > 200 {
		contentPreview = content[:200]
	}
	words = append(words, strings.Fields(strings.ToLower(contentPreview))...)

	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true,
		"but": true, "in": true, "on": true, "at": true, "to": true,
		"for": true, "of": true, "as": true, "by": true, "is": true,
		"it": true, "be": true, "with": true, "from": true, "that": true,
	}

	keywordMap := make(map[string]bool)
	var keywords []string
	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
		})
		if len(word) > 2 && !stopWords[word] && !keywordMap[word] {
			keywordMap[word] = true
			keywords = append(keywords, word)
		}
	}

	if len(keywords) > 10 {
		keywords = keywords[:10]
	}

	return keywords
}

// CreateAnchor derives a URL anchor from a heading the way the docs site
// builder does. Example: "Computing the GRM" -> "computing-the-grm"
func CreateAnchor(text string) string {
	anchor := strings.ToLower(strings.TrimSpace(text))
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, anchor)
	return anchor
}

// EnrichMetadata fills breadcrumb, URL, keywords, and token estimate.
// anchor may be empty for page-level chunks.
func EnrichMetadata(chunk *DocChunk, baseURL, anchor string) {
	var breadcrumb []string
	if chunk.Page != "" {
		breadcrumb = append(breadcrumb, chunk.Page)
	}
	if chunk.Section != "" && chunk.Section != chunk.Page {
		breadcrumb = append(breadcrumb, chunk.Section)
	}
	if len(breadcrumb) > 0 {
		chunk.Breadcrumb = strings.Join(breadcrumb, " > ")
	}

	if baseURL != "" {
		chunk.URL = strings.TrimSuffix(baseURL, "/") + "/" + chunk.DocName + ".html"
		if anchor != "" {
			chunk.URL += "#" + anchor
		}
	}

	chunk.Keywords = ExtractKeywords(chunk.Section, chunk.Content)
	chunk.TokenCount = EstimateTokens(chunk.Content)
}
