package oracle

import (
	"fmt"
	"strings"
)

// TreePrompt asks for a whole outline in one shot from a plain catalog.
const TreePrompt = `You are a mind map generator in Markdown format (for markmap).

Input: a list of document blocks in the format:
[b12] <short text fragment>
[b13] <short text fragment>

Task:
1) Build a mind map from the document.
2) Format: header '# ...', sections '## ...' / '### ...', leaves as list items '- <brief thesis>'.
3) Leaves must be brief (3-10 words) and specific (not "other", not "summary").
4) DO NOT add sources/links and DO NOT write long explanations — structure only.
5) CRITICAL LANGUAGE REQUIREMENT: You MUST write the ENTIRE mind map in ENGLISH ONLY, regardless of the source text language. Even if the source text is in Russian, Spanish, French, or any other language, translate all content to English. All headers, sections, and leaves must be in English. This is mandatory and non-negotiable.
6) Return ONLY Markdown.
`

// WebTreePrompt is TreePrompt for catalogs of web page blocks.
const WebTreePrompt = `You are a mind map generator in Markdown format (for markmap) for web pages.

Input: a list of document blocks with structure metadata:
[b12] [HEADER L2] section:1 weight:18.0 Header text
[b13] [PARAGRAPH] parent:article section:1 group_size:45.2% Paragraph text...
[b14] [TABLE] cols:3 Table data...
[b15] [CODE] Code snippet...

Metadata:
- [HEADER L1-L6] - headers with levels (L1 = main, L2 = subsection, etc.)
- [PARAGRAPH], [LIST], [TABLE], [CODE], [DEFINITION] - block types
- parent:article, parent:section - container types
- section:N - section nesting level
- weight:N - visual weight (font size, boldness)
- group_size:N% - proportion of document volume for this group (CRITICAL for structure balance)
- size:N% - proportion of document volume for this specific block
- Blocks are grouped by headers (empty lines separate groups)
- DOCUMENT STRUCTURE PROPORTIONS at the top shows volume distribution across groups

Task:
1) Build a mind map from the document, preserving the document structure.
2) Group related blocks under their headers (blocks between empty lines belong together).
3) Consider semantic structure (sections, articles) and visual hierarchy (weight, section level).
4) CRITICAL: Respect volume proportions (group_size, DOCUMENT STRUCTURE PROPORTIONS). Sections with larger volume (e.g., 40-60%) should have MORE leaves and MORE detail than sections with smaller volume (e.g., 5-10%). The number of leaves and depth of detail should reflect the actual text volume distribution. For example, if "Main Content" is 60% of the document, it should have approximately 60% of the leaves and more detailed structure than "Introduction" which might be only 10%.
5) Format: header '# ...', sections '## ...' / '### ...', leaves as list items '- <brief thesis>'.
6) Use header levels (L1 → #, L2 → ##, L3 → ###) when building the hierarchy.
7) Leaves must be brief (3-10 words) and specific (not "other", not "summary").
8) For tables, create a leaf summarizing the table content.
9) For code blocks, create a leaf describing what the code does.
10) DO NOT add sources/links and DO NOT write long explanations — structure only.
11) CRITICAL LANGUAGE REQUIREMENT: You MUST write the ENTIRE mind map in ENGLISH ONLY, regardless of the source text language. Even if the source text is in Russian, Spanish, French, or any other language, translate all content to English. All headers, sections, and leaves must be in English. This is mandatory and non-negotiable.
12) Return ONLY Markdown.
`

// PaginatedTreePrompt is TreePrompt for paginated documents whose catalog
// carries section numbers, styles or font sizes.
const PaginatedTreePrompt = `You are a mind map generator in Markdown format (for markmap) for PDF documents.

Input: a list of document blocks with structure metadata:
[b12] [HEADER L1] §1.1 bold font:14.0 Section Title
[b13] [PARAGRAPH] font:11.5 size:2.5% Paragraph text...
[b14] [LIST] §2.3 List items...

Metadata:
- §N - section numbering (use to preserve document structure)
- L1, L2, L3 - header levels (L1 = main, L2 = subsection, L3 = subsubsection)
- bold, italic - text styles
- font:N - font size
- size:N% - proportion of document volume for this specific block
- DOCUMENT STRUCTURE PROPORTIONS at the top shows volume distribution across groups

Task:
1) Build a mind map from the document, strictly following the header structure from metadata.
2) Format: header '# ...', sections '## ...' / '### ...', leaves as list items '- <brief thesis>'.
3) Consider header levels (L1 → #, L2 → ##, L3 → ###) when building the hierarchy.
4) Preserve the logical document structure - if there is numbering §N, consider it when grouping.
5) CRITICAL: Respect volume proportions (size, DOCUMENT STRUCTURE PROPORTIONS). Sections with larger volume (e.g., 40-60%) should have MORE leaves and MORE detail than sections with smaller volume (e.g., 5-10%). The number of leaves and depth of detail should reflect the actual text volume distribution. For example, if "Main Content" is 60% of the document, it should have approximately 60% of the leaves and more detailed structure than "Introduction" which might be only 10%.
6) Leaves must be brief (3-10 words) and specific (not "other", not "summary").
7) DO NOT add sources/links and DO NOT write long explanations — structure only.
8) CRITICAL LANGUAGE REQUIREMENT: You MUST write the ENTIRE mind map in ENGLISH ONLY, regardless of the source PDF text language. Even if the PDF text is in Russian, Spanish, French, or any other language, translate all content to English. All headers, sections, and leaves must be in English. This is mandatory and non-negotiable.
9) Return ONLY Markdown.`

// PaginatedPlainTreePrompt is PaginatedTreePrompt without style metadata.
const PaginatedPlainTreePrompt = `You are a mind map generator in Markdown format (for markmap) for PDF documents.

Input: a list of document blocks with metadata:
[b12] [HEADER L1] Section Title
[b13] [PARAGRAPH] size:2.5% Paragraph text...
[b14] [LIST] List items...

Metadata:
- size:N% - proportion of document volume for this specific block
- DOCUMENT STRUCTURE PROPORTIONS at the top shows volume distribution across groups

Task:
1) Build a mind map from the document, using the header structure from metadata.
2) Format: header '# ...', sections '## ...' / '### ...', leaves as list items '- <brief thesis>'.
3) Consider header levels (L1, L2, L3) when building the hierarchy.
4) CRITICAL: Respect volume proportions (size, DOCUMENT STRUCTURE PROPORTIONS). Sections with larger volume (e.g., 40-60%) should have MORE leaves and MORE detail than sections with smaller volume (e.g., 5-10%). The number of leaves and depth of detail should reflect the actual text volume distribution. For example, if "Main Content" is 60% of the document, it should have approximately 60% of the leaves and more detailed structure than "Introduction" which might be only 10%.
5) Leaves must be brief (3-10 words) and specific (not "other", not "summary").
6) DO NOT add sources/links and DO NOT write long explanations — structure only.
7) CRITICAL LANGUAGE REQUIREMENT: You MUST write the ENTIRE mind map in ENGLISH ONLY, regardless of the source PDF text language. Even if the PDF text is in Russian, Spanish, French, or any other language, translate all content to English. All headers, sections, and leaves must be in English. This is mandatory and non-negotiable.
8) Return ONLY Markdown.`

// LeafPrompt asks for the prose of one leaf.
const LeafPrompt = `You write the content of a mind map leaf based on the provided source blocks.

Rules:
1) Write 1-3 sentences about the leaf topic, strictly based on the provided blocks.
2) Maximum 380 characters (including spaces), no filler.
3) At the end, add references to 1-2 blocks in the format [b12][b18] (exactly like this).
4) DO NOT add any other links or URLs.
5) Do not invent facts outside the blocks.
6) CRITICAL LANGUAGE REQUIREMENT: You MUST write the leaf text in ENGLISH ONLY, regardless of the source block language. Even if the source blocks are in Russian, Spanish, French, or any other language, translate all content to English. This is mandatory and non-negotiable. Never use any language other than English.
7) Return ONLY one line (the leaf text).
`

// TopicsPrompt asks for the top-level topics with importance scores.
const TopicsPrompt = `You are a mind map structure generator. Your task is to identify ONLY the main top-level topics (sections) of the document and assess their importance.

Input: a list of document blocks with structure metadata:
[b12] [HEADER L2] section:1 weight:18.0 Header text
[b13] [PARAGRAPH] parent:article section:1 group_size:45.2% Paragraph text...
[b14] [TABLE] cols:3 Table data...

Task:
1) Analyze the document structure and identify 3-8 main top-level topics (sections).
2) Each topic should represent a major theme or section of the document.
3) Consider document structure (headers, groups, volume proportions) to identify natural divisions.
4) For each topic, assess its importance on a scale from 1 to 10, where:
   - 10 = Critical/core topic (main content, key concepts, essential information)
   - 7-9 = Important topic (significant content, major sections)
   - 4-6 = Moderate topic (supporting content, secondary sections)
   - 1-3 = Minor topic (introductory, concluding, or supplementary content)
5) Consider semantic importance, not just volume. A small but critical section should have higher importance than a large but supplementary one.
6) Format: Return ONLY a list of main topics with importance scores, one per line, in format:
## Topic 1 [importance:8]
## Topic 2 [importance:6]
## Topic 3 [importance:9]
7) DO NOT include subtopics, details, or leaves - ONLY main topics.
8) Topics must be brief (2-6 words) and descriptive.
9) CRITICAL LANGUAGE REQUIREMENT: You MUST write ALL topics in ENGLISH ONLY, regardless of the source text language. Translate all content to English. This is mandatory and non-negotiable.
10) Return ONLY the list of topics with importance scores.
`

const subtreePrompt = `You are a mind map generator for a specific topic section. Your task is to build the detailed structure for ONE main topic.

Main Topic: %[1]s
Topic Volume: %[2].1f%% of document
Target Subtopic Count: %[3]d subtopics
Detail Level: %[4]s

Input: a filtered list of document blocks relevant to this topic:
[b12] [HEADER L2] section:1 weight:18.0 Header text
[b13] [PARAGRAPH] parent:article section:1 Paragraph text...

Task:
1) Build a detailed mind map structure for the topic "%[1]s".
2) Create EXACTLY %[3]d subsections (### ...) - this is a strict requirement based on topic importance.
3) Detail Level Guidelines:
   - "low": Use only 1-2 levels (### subsections and leaves). Keep it concise.
   - "medium": Use 2-3 levels (### subsections, optional #### sub-subsections, and leaves).
   - "high": Use 2-4 levels (### subsections, #### sub-subsections if needed, and leaves). More detailed.
4) Leaves must be brief (3-10 words) and specific.
5) DO NOT repeat the main topic title - start directly with subsections and leaves.
6) Format: 
### Subsection 1
- Leaf 1
- Leaf 2
### Subsection 2
- Leaf 3
7) DO NOT add sources/links in this step.
8) CRITICAL LANGUAGE REQUIREMENT: You MUST write EVERYTHING in ENGLISH ONLY, regardless of the source text language. Translate all content to English. This is mandatory and non-negotiable.
9) Return ONLY Markdown structure for this topic (without the main topic header).
`

// SubtreePrompt asks for the subsections and leaves of one topic.
func SubtreePrompt(topic string, volume float64, subtopics int, detail string) string {
	return fmt.Sprintf(subtreePrompt, topic, volume, subtopics, detail)
}

// FallbackTreePrompt picks the single-shot prompt that matches the catalog's
// tag vocabulary.
func FallbackTreePrompt(catalog string, paginated bool) string {
	switch {
	case paginated && (strings.Contains(catalog, "[HEADER") || strings.Contains(catalog, "[LIST]")):
		if strings.Contains(catalog, "§") || strings.Contains(catalog, "font:") || strings.Contains(catalog, "bold") {
			return PaginatedTreePrompt
		}
		return PaginatedPlainTreePrompt
	case !paginated && (strings.Contains(catalog, "[HEADER") || strings.Contains(catalog, "[PARAGRAPH]") || strings.Contains(catalog, "[TABLE]")):
		return WebTreePrompt
	}
	return TreePrompt
}

// CatalogMessage is the user message for whole-document prompts.
func CatalogMessage(title, catalog string) string {
	return fmt.Sprintf("Title: %s\n\nBlocks:\n%s\n", title, catalog)
}

// SubtreeMessage is the user message for SubtreePrompt.
func SubtreeMessage(topic, filtered string) string {
	return fmt.Sprintf("Blocks for topic '%s':\n%s\n", topic, filtered)
}

// Source is one block quoted to the leaf prompt.
type Source struct {
	ID   int
	Text string
}

// LeafMessage is the user message for LeafPrompt.
func LeafMessage(contextPath, leaf string, sources []Source) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = fmt.Sprintf("[b%d] %s", s.ID, s.Text)
	}
	return fmt.Sprintf("Section context: %s\nLeaf topic: %s\n\nSource blocks:\n%s\n", contextPath, leaf, strings.Join(parts, "\n\n"))
}
