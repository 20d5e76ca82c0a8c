package debug

import (
	"testing"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"no depth", 0, "body", nil, "body\n"},
		{"depth 1", 1, "section", nil, "  section\n"},
		{"depth 2", 2, "column", nil, "    column\n"},
		{"with formatting", 1, "widget kind=%s conf=%d", []any{"button", 90}, "  widget kind=button conf=90\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		label string
		value string
		want  string
	}{
		{"empty value stays unquoted", 0, "text", "", "text: \n"},
		{"simple value", 1, "text", "Buy Now", "  text: \"Buy Now\"\n"},
		{"quotes escaped", 0, "text", `say "hi"`, "text: \"say \\\"hi\\\"\"\n"},
		{"newline escaped", 0, "text", "line1\nline2", "text: \"line1\\nline2\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeShape(t *testing.T) {
	tw := NewTreeWriter()
	tw.Line(0, "section")
	tw.Line(1, "column")
	tw.TextBlock(2, "text", "hello")
	tw.Line(1, "column")

	want := "section\n  column\n    text: \"hello\"\n  column\n"
	if got := tw.String(); got != want {
		t.Errorf("tree:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
