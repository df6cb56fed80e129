package indexing

import "strings"

// PageSection is one heading-delimited stretch of a plain-text page export.
type PageSection struct {
	Heading string // empty for content preceding the first heading
	Content string
}

// underlineRunes are the adornment characters the Sphinx text builder uses
// to underline headings.
const underlineRunes = `*=-^~"#`

// isUnderline reports whether a line is a heading underline: a run of a
// single adornment character at least as long as the heading above it.
func isUnderline(line string, headingLen int) bool {
	line = strings.TrimRight(line, " \t")
	if len(line) < headingLen || headingLen == 0 {
		return false
	}
	first := line[0]
	if !strings.ContainsRune(underlineRunes, rune(first)) {
		return false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != first {
			return false
		}
	}
	return true
}

// SplitSections splits a text-builder page export into heading-delimited
// sections. The exporter marks headings by underlining them with a run of
// punctuation, so a section starts at any line whose successor is such a run.
func SplitSections(text string) []PageSection {
	lines := strings.Split(text, "\n")

	var sections []PageSection
	var heading string
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" || heading != "" {
			sections = append(sections, PageSection{Heading: heading, Content: content})
		}
		body = body[:0]
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed != "" && i+1 < len(lines) && isUnderline(lines[i+1], len(trimmed)) {
			flush()
			heading = trimmed
			i++ // skip the underline
			continue
		}

		body = append(body, line)
	}
	flush()

	return sections
}
