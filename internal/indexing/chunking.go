package indexing

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/ideal-genom/gwaskit/internal/sphinx"
)

// ForceSplitText splits text by character count at word boundaries
func ForceSplitText(text string, maxChars, overlapChars int) []string {
	var parts []string

	for len(text) > 0 {
		chunkSize := maxChars
		if len(text) < chunkSize {
			chunkSize = len(text)
		}

		// Try to break at word boundary
		if chunkSize < len(text) {
			for i := chunkSize; i > chunkSize-100 && i > 0; i-- {
				if text[i] == ' ' || text[i] == '\n' {
					chunkSize = i
					break
				}
			}
		}

		parts = append(parts, text[:chunkSize])

		if chunkSize+overlapChars < len(text) {
			text = text[chunkSize-overlapChars:]
		} else {
			text = text[chunkSize:]
		}
	}

	return parts
}

// sectionAnchor resolves the anchor for a heading on a given document,
// preferring the generator's own alltitles anchor over a derived one.
func sectionAnchor(idx *sphinx.Index, doc int, heading string) string {
	if heading == "" {
		return ""
	}
	for _, entry := range idx.AllTitles[heading] {
		if entry.Doc == doc {
			if entry.HasAnchor {
				return entry.Anchor
			}
			return "" // page-level heading
		}
	}
	return CreateAnchor(heading)
}

// subdivide splits an oversized chunk into overlapping parts, numbering the
// section name so each part stays addressable.
func subdivide(chunk DocChunk, baseURL, anchor string) []DocChunk {
	if EstimateTokens(chunk.Content) <= MaxChunkTokens {
		EnrichMetadata(&chunk, baseURL, anchor)
		return []DocChunk{chunk}
	}

	maxChars := MaxChunkTokens * CharsPerToken
	overlapChars := OverlapTokens * CharsPerToken

	// Prefer paragraph boundaries, fall back to forced word-boundary splits.
	paragraphs := strings.Split(chunk.Content, "\n\n")
	var parts []string
	var current strings.Builder
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && EstimateTokens(current.String()+para) > TargetChunkTokens {
			parts = append(parts, current.String())
			current.Reset()
		}
		if EstimateTokens(para) > MaxChunkTokens {
			parts = append(parts, ForceSplitText(para, maxChars, overlapChars)...)
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	if len(parts) == 0 {
		parts = ForceSplitText(chunk.Content, maxChars, overlapChars)
	}

	subchunks := make([]DocChunk, 0, len(parts))
	for i, part := range parts {
		sub := chunk
		sub.ID = fmt.Sprintf("%s_sub%d", chunk.ID, i)
		sub.Content = part
		if i > 0 && sub.Section != "" {
			sub.Section = fmt.Sprintf("%s (part %d)", chunk.Section, i+1)
		}
		EnrichMetadata(&sub, baseURL, anchor)
		subchunks = append(subchunks, sub)
	}
	return subchunks
}

// BuildChunks converts a parsed search index plus its plain-text page
// exports into searchable chunks. Pages live in the given filesystem as
// "<docname>.txt"; documents without an export are skipped, since the index
// may reference orphaned pages the text build drops.
func BuildChunks(idx *sphinx.Index, pages fs.FS, baseURL string) ([]DocChunk, error) {
	var chunks []DocChunk
	found := 0

	for doc, docName := range idx.DocNames {
		data, err := fs.ReadFile(pages, docName+".txt")
		if err != nil {
			continue
		}
		found++

		page := idx.Titles[doc]
		for _, section := range SplitSections(string(data)) {
			if section.Content == "" {
				continue
			}

			heading := section.Heading
			if heading == "" || heading == page {
				heading = page
			}

			chunk := DocChunk{
				ID:      fmt.Sprintf("chunk_%d", len(chunks)),
				Doc:     doc,
				DocName: docName,
				Page:    page,
				Section: heading,
				Content: section.Content,
			}

			anchor := ""
			if heading != page {
				anchor = sectionAnchor(idx, doc, heading)
			}

			chunks = append(chunks, subdivide(chunk, baseURL, anchor)...)
		}
	}

	if found == 0 {
		return nil, fmt.Errorf("no page exports found for any of the %d indexed documents", idx.DocCount())
	}

	return chunks, nil
}
