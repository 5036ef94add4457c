package source

import (
	"errors"
	"testing"
)

const yamlPayload = `
input_type: page_blocks
page:
  url: https://ex.com/guide
  title: Guide
detail_level: low
max_leaves: 5
blocks:
  - block: 0
    tag: h1
    text: Install
    level: 1
  - block: 1
    tag: p
    xpath: /html/body/p[1]
    text: Run the installer.
    groupId: 0
`

func TestDecodePayload_YAML(t *testing.T) {
	p, err := DecodePayload("guide.yaml", []byte(yamlPayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.InputType != InputPageBlocks || p.Page == nil || p.Page.URL != "https://ex.com/guide" {
		t.Fatalf("expected page_blocks payload for the guide, got %+v", p)
	}
	if p.DetailLevel != "low" || p.MaxLeaves != 5 {
		t.Errorf("expected low/5 overrides, got %q/%d", p.DetailLevel, p.MaxLeaves)
	}
	if len(p.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(p.Blocks))
	}
	b := p.Blocks[1]
	if b.BlockID() != 1 || b.XPath != "/html/body/p[1]" || b.GroupID == nil {
		t.Errorf("expected block 1 with xpath and group, got %+v", b)
	}
}

func TestDecodePayload_JSON(t *testing.T) {
	p, err := DecodePayload("note.JSON", []byte(`{"input_type":"text","value":"Hello there."}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.InputType != InputText || p.Value != "Hello there." {
		t.Errorf("expected text payload, got %+v", p)
	}
}

func TestDecodePayload_Errors(t *testing.T) {
	if _, err := DecodePayload("doc.md", []byte("# x")); !errors.Is(err, ErrUnsupportedInput) {
		t.Errorf("expected ErrUnsupportedInput for a document, got %v", err)
	}
	if _, err := DecodePayload("p.json", []byte(`{"value":"x"}`)); err == nil {
		t.Error("expected error for missing input_type")
	}
	if _, err := DecodePayload("p.yml", []byte("input_type: [")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestIsPayloadFile(t *testing.T) {
	tests := map[string]bool{
		"a.json":  true,
		"a.YAML":  true,
		"a.yml":   true,
		"a.md":    false,
		"a.pdf":   false,
		"payload": false,
	}
	for name, want := range tests {
		if got := IsPayloadFile(name); got != want {
			t.Errorf("IsPayloadFile(%q): expected %v, got %v", name, want, got)
		}
	}
}
