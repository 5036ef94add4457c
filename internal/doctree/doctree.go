package doctree

import "strings"

// DocTree is the root of a parsed document file.
type DocTree struct {
	Title     string     // Document title (from metadata or filename)
	Paginated bool       // Pages carry no addressable locator (PDF, scans)
	Children  []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Level    int        // Heading level 1-6 (0 for untitled text)
	Kind     string     // Block type of Text: paragraph, list, table, code
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Path     string     // Structural path of the source element, e.g. /html/body/h2[3]
	Headers  []string   // Column headers when Kind is table
	Children []*DocNode // Subsections
}

// Block types understood by the catalog.
const (
	BlockHeader     = "header"
	BlockParagraph  = "paragraph"
	BlockList       = "list"
	BlockTable      = "table"
	BlockCode       = "code"
	BlockDefinition = "definition"
)

// Block is an atomic unit of source text. Blocks are immutable inputs:
// IDs are referenced by the outline and never recomputed.
type Block struct {
	ID   *int   `json:"block,omitempty" yaml:"block,omitempty"`
	Text string `json:"text" yaml:"text"`

	XPath string `json:"xpath,omitempty" yaml:"xpath,omitempty"`
	Tag   string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Page  int    `json:"page,omitempty" yaml:"page,omitempty"`

	BlockType     string  `json:"blockType,omitempty" yaml:"blockType,omitempty"`
	Level         int     `json:"level,omitempty" yaml:"level,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Style         string  `json:"style,omitempty" yaml:"style,omitempty"`
	SectionNumber string  `json:"sectionNumber,omitempty" yaml:"sectionNumber,omitempty"`

	ParentTag    string  `json:"parentTag,omitempty" yaml:"parentTag,omitempty"`
	SectionLevel int     `json:"sectionLevel,omitempty" yaml:"sectionLevel,omitempty"`
	VisualWeight float64 `json:"visualWeight,omitempty" yaml:"visualWeight,omitempty"`
	GroupID      *int    `json:"groupId,omitempty" yaml:"groupId,omitempty"`

	TableHeaders []string `json:"tableHeaders,omitempty" yaml:"tableHeaders,omitempty"`
}

// HasID reports whether the block carries an identifier.
func (b Block) HasID() bool { return b.ID != nil }

// BlockID returns the identifier, or -1 when absent.
func (b Block) BlockID() int {
	if b.ID == nil {
		return -1
	}
	return *b.ID
}

// Group returns the container id, 0 when absent.
func (b Block) Group() int {
	if b.GroupID == nil {
		return 0
	}
	return *b.GroupID
}

// SourceKind tells how back-references into the source can be rendered.
type SourceKind string

const (
	// SourcePage blocks are addressable by page URL + structural path.
	SourcePage SourceKind = "page"
	// SourcePaginated blocks (PDF, scans) have no addressable locator.
	SourcePaginated SourceKind = "paginated"
)

// Document is the input of one outline build.
type Document struct {
	Title  string
	URL    string
	Kind   SourceKind
	Blocks []Block
}

// Paginated reports whether references must be stripped rather than linked.
func (d Document) Paginated() bool { return d.Kind == SourcePaginated }

// XPaths maps block id to structural path for blocks that have one.
func (d Document) XPaths() map[int]string {
	out := make(map[int]string, len(d.Blocks))
	for _, b := range d.Blocks {
		if b.ID != nil && b.XPath != "" {
			out[*b.ID] = b.XPath
		}
	}
	return out
}

// NormalizeWS collapses all whitespace runs to single spaces and trims.
func NormalizeWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IntPtr is a helper for building blocks in code.
func IntPtr(n int) *int { return &n }
