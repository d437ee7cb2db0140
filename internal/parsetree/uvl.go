package parsetree

import (
	"strings"

	"github.com/Koenneker/uvl-lsp/internal/rope"
)

var groupKeywords = map[string]bool{
	"mandatory":   true,
	"optional":    true,
	"or":          true,
	"alternative": true,
	"abstract":    true,
}

var sectionKeywords = map[string]Section{
	"namespace":   SectionNamespace,
	"imports":     SectionImports,
	"features":    SectionFeatures,
	"constraints": SectionConstraints,
}

// Parse reads a UVL document into a Tree. It is a pure function: the same
// (src, previous) always yields an equivalent Tree. previous is accepted
// only as a shape-compatible hint for a future incremental implementation
// and is otherwise ignored -- this reader always re-scans the whole
// buffer, which keeps it trivially side-effect free.
func Parse(src *rope.Rope, previous *Tree) *Tree {
	t := &Tree{}
	section := SectionNone
	for i := 0; i < src.LineCount(); i++ {
		line := src.Line(i)
		lineStart := src.LineStartByte(i)
		trimmed := strings.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)
		content := strings.TrimRight(trimmed, " \t")
		if content == "" {
			continue
		}
		if strings.HasPrefix(content, "//") {
			t.appendComment(lineStart+indent, len(content), i, indent)
			continue
		}
		if indent == 0 {
			if sec, isHeader := matchSectionHeader(content); isHeader {
				section = sec
				t.appendKeyword(lineStart, headerWord(content), i)
				if section == SectionNamespace {
					parseNamespaceRemainder(t, content, lineStart, i)
				}
				continue
			}
		}
		switch section {
		case SectionNamespace:
			parseNamespaceRemainder(t, content, lineStart+indent, i)
		case SectionImports:
			parseImportLine(t, content, lineStart+indent, i)
		case SectionFeatures:
			parseFeatureLine(t, content, lineStart+indent, i, indent)
		case SectionConstraints:
			parseConstraintLine(t, content, lineStart+indent, i)
		default:
			t.appendError(lineStart+indent, len(content), i, "content before any section header")
		}
	}
	return t
}

func headerWord(content string) string {
	for i, r := range content {
		if r == ' ' || r == '\t' {
			return content[:i]
		}
	}
	return content
}

func matchSectionHeader(content string) (Section, bool) {
	word := headerWord(content)
	sec, ok := sectionKeywords[strings.ToLower(word)]
	return sec, ok
}

func (t *Tree) appendKeyword(byteStart int, text string, row int) {
	t.Nodes = append(t.Nodes, &Node{
		Kind:    "keyword",
		Capture: CaptureKeyword,
		Span:    rope.ByteSpan{Start: byteStart, End: byteStart + len(text)},
		Start:   rope.Point{Row: row, Column: 0},
		End:     rope.Point{Row: row, Column: len(text)},
		Text:    text,
	})
}

func (t *Tree) appendComment(byteStart, length, row, col int) {
	t.Nodes = append(t.Nodes, &Node{
		Kind:    "comment",
		Capture: CaptureComment,
		Span:    rope.ByteSpan{Start: byteStart, End: byteStart + length - col},
		Start:   rope.Point{Row: row, Column: col},
		End:     rope.Point{Row: row, Column: col + (length - col)},
	})
}

func (t *Tree) appendError(byteStart, length, row int, msg string) {
	n := &Node{
		Kind:         "ERROR",
		Span:         rope.ByteSpan{Start: byteStart, End: byteStart + length},
		Start:        rope.Point{Row: row, Column: 0},
		End:          rope.Point{Row: row, Column: length},
		IsError:      true,
		ErrorMessage: msg,
	}
	t.Nodes = append(t.Nodes, n)
	t.Errors = append(t.Errors, n)
}

func parseNamespaceRemainder(t *Tree, content string, byteStart int, row int) {
	word := headerWord(content)
	rest := strings.TrimLeft(content[len(word):], " \t")
	if rest == "" {
		return
	}
	off := strings.Index(content, rest)
	start := byteStart + off
	t.Nodes = append(t.Nodes, &Node{
		Kind:    "namespace_name",
		Capture: CaptureNamespace,
		Span:    rope.ByteSpan{Start: start, End: start + len(rest)},
		Start:   rope.Point{Row: row, Column: off},
		End:     rope.Point{Row: row, Column: off + len(rest)},
		Section: SectionNamespace,
		Text:    rest,
	})
}

func parseImportLine(t *Tree, content string, byteStart int, row int) {
	fields := splitFields(content)
	for idx, f := range fields {
		start := byteStart + f.offset
		switch {
		case strings.EqualFold(f.text, "as"):
			t.Nodes = append(t.Nodes, &Node{
				Kind: "keyword", Capture: CaptureKeyword,
				Span: rope.ByteSpan{Start: start, End: start + len(f.text)},
				Start: rope.Point{Row: row, Column: f.offset}, End: rope.Point{Row: row, Column: f.offset + len(f.text)},
				Section: SectionImports, Text: f.text,
			})
		case idx == 0:
			t.Nodes = append(t.Nodes, &Node{
				Kind: "import_source", Capture: CaptureNamespace,
				Span: rope.ByteSpan{Start: start, End: start + len(f.text)},
				Start: rope.Point{Row: row, Column: f.offset}, End: rope.Point{Row: row, Column: f.offset + len(f.text)},
				Section: SectionImports, Text: f.text,
			})
		default:
			t.Nodes = append(t.Nodes, &Node{
				Kind: "import_alias", Capture: CaptureClass,
				Span: rope.ByteSpan{Start: start, End: start + len(f.text)},
				Start: rope.Point{Row: row, Column: f.offset}, End: rope.Point{Row: row, Column: f.offset + len(f.text)},
				Section: SectionImports, Text: f.text,
			})
		}
	}
}

// parseFeatureLine recognizes an optional leading group keyword, a feature
// name (bare word or quoted string), and trailing `name value` attribute
// pairs separated by whitespace.
func parseFeatureLine(t *Tree, content string, byteStart int, row int, depth int) {
	fields := splitFields(content)
	i := 0
	for i < len(fields) && groupKeywords[strings.ToLower(fields[i].text)] {
		f := fields[i]
		start := byteStart + f.offset
		t.Nodes = append(t.Nodes, &Node{
			Kind: "group_keyword", Capture: CaptureKeyword,
			Span: rope.ByteSpan{Start: start, End: start + len(f.text)},
			Start: rope.Point{Row: row, Column: f.offset}, End: rope.Point{Row: row, Column: f.offset + len(f.text)},
			Section: SectionFeatures, Text: f.text, Depth: depth,
		})
		i++
	}
	if i >= len(fields) {
		return
	}
	name := fields[i]
	start := byteStart + name.offset
	unquoted := strings.Trim(name.text, `"`)
	t.Nodes = append(t.Nodes, &Node{
		Kind: "feature", Capture: CaptureClass,
		Span: rope.ByteSpan{Start: start, End: start + len(name.text)},
		Start: rope.Point{Row: row, Column: name.offset}, End: rope.Point{Row: row, Column: name.offset + len(name.text)},
		Section: SectionFeatures, Text: unquoted, Depth: depth,
	})
	i++
	for i < len(fields) {
		attr := fields[i]
		astart := byteStart + attr.offset
		isNumeric := false
		var valField *field
		if i+1 < len(fields) && isNumberLiteral(fields[i+1].text) {
			isNumeric = true
			valField = &fields[i+1]
		}
		kind := "attribute"
		capture := CaptureFunction
		t.Nodes = append(t.Nodes, &Node{
			Kind: kind, Capture: capture,
			Span: rope.ByteSpan{Start: astart, End: astart + len(attr.text)},
			Start: rope.Point{Row: row, Column: attr.offset}, End: rope.Point{Row: row, Column: attr.offset + len(attr.text)},
			Section: SectionFeatures, Text: attr.text, Depth: depth, NumericContext: isNumeric,
		})
		if valField != nil {
			i += 2
		} else {
			i++
		}
	}
}

func isNumberLiteral(s string) bool {
	if s == "" {
		return false
	}
	seenDigit := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' || r == '-' && i == 0:
			// allowed
		default:
			return false
		}
	}
	return seenDigit
}

var constraintOperators = []string{"<=>", "=>", "==", "!=", ">=", "<=", "&", "|", "!", "(", ")", "+", "-", "*", "/", "<", ">", "="}

func parseConstraintLine(t *Tree, content string, byteStart int, row int) {
	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case isIdentStart(c):
			j := i
			for j < len(content) && isIdentPart(content[j]) {
				j++
			}
			text := content[i:j]
			if isNumberLiteral(text) {
				i = j
				continue
			}
			emitPathNode(t, content, text, byteStart+i, row, i)
			i = j
		default:
			matched := false
			for _, op := range constraintOperators {
				if strings.HasPrefix(content[i:], op) {
					start := byteStart + i
					t.Nodes = append(t.Nodes, &Node{
						Kind: "operator", Capture: CaptureOperator,
						Span: rope.ByteSpan{Start: start, End: start + len(op)},
						Start: rope.Point{Row: row, Column: i}, End: rope.Point{Row: row, Column: i + len(op)},
						Section: SectionConstraints, Text: op,
					})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				i++
			}
		}
	}
}

func emitPathNode(t *Tree, line, text string, byteStart, row, col int) {
	parts := strings.Split(text, ".")
	segments := make([]PathSegment, 0, len(parts))
	offset := 0
	for _, p := range parts {
		start := byteStart + offset
		segments = append(segments, PathSegment{Name: p, Span: rope.ByteSpan{Start: start, End: start + len(p)}})
		offset += len(p) + 1 // account for the '.' separator
	}
	numeric := nearOperator(line, col+len(text)) || nearOperatorBefore(line, col)
	t.Nodes = append(t.Nodes, &Node{
		Kind: "path", Capture: CaptureSomePath,
		Span: rope.ByteSpan{Start: byteStart, End: byteStart + len(text)},
		Start: rope.Point{Row: row, Column: col}, End: rope.Point{Row: row, Column: col + len(text)},
		Section: SectionConstraints, Text: text, PathSegments: segments, NumericContext: numeric,
	})
}

var numericLookaround = []string{"<=", ">=", "==", "!=", "<", ">", "+", "-", "*", "/"}

func nearOperator(line string, from int) bool {
	rest := strings.TrimLeft(line[min(from, len(line)):], " \t")
	for _, op := range numericLookaround {
		if strings.HasPrefix(rest, op) {
			return true
		}
	}
	return false
}

func nearOperatorBefore(line string, upto int) bool {
	prefix := strings.TrimRight(line[:min(upto, len(line))], " \t")
	for _, op := range numericLookaround {
		if strings.HasSuffix(prefix, op) {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

type field struct {
	text   string
	offset int
}

func splitFields(content string) []field {
	var out []field
	i := 0
	for i < len(content) {
		for i < len(content) && (content[i] == ' ' || content[i] == '\t') {
			i++
		}
		if i >= len(content) {
			break
		}
		start := i
		if content[i] == '"' {
			i++
			for i < len(content) && content[i] != '"' {
				i++
			}
			if i < len(content) {
				i++
			}
		} else {
			for i < len(content) && content[i] != ' ' && content[i] != '\t' {
				i++
			}
		}
		out = append(out, field{text: content[start:i], offset: start})
	}
	return out
}
