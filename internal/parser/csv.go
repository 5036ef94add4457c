package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/mindgest/internal/doctree"
)

// csvBatchRows is the number of data rows per table node.
const csvBatchRows = 20

// CSVParser handles CSV files. The first record is the header row; data rows
// are grouped into table nodes under "Rows a-b" headings.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".csv"),
	}
	if len(records) == 0 {
		return tree, nil
	}

	headers := records[0]
	data := records[1:]
	s := newSections()
	for i := 0; i < len(data); i += csvBatchRows {
		end := min(i+csvBatchRows, len(data))

		var rows []string
		for _, row := range data[i:end] {
			rows = append(rows, strings.Join(row, " | "))
		}
		// Row numbers are 1-indexed and count the header row.
		s.heading(2, fmt.Sprintf("Rows %d-%d", i+2, end+1), "")
		s.content(&doctree.DocNode{
			Kind:    doctree.BlockTable,
			Text:    strings.Join(rows, "\n"),
			Headers: headers,
		})
	}
	tree.Children = s.nodes()
	return tree, nil
}
