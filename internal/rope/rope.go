// Package rope maintains document text under a flood of LSP
// textDocument/didChange events and translates between UTF-8 byte offsets
// (what the parser facade wants) and LSP Positions (UTF-16 code units).
package rope

import (
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Point is a tree-sitter-style zero-based (row, byte-column) position.
type Point struct {
	Row    int
	Column int
}

// ByteSpan is a half-open [Start, End) byte range into a Rope's text.
type ByteSpan struct {
	Start int
	End   int
}

// Edit describes a byte-offset splice, in the row/column-carrying shape a
// parser facade needs to feed an incremental reparse.
type Edit struct {
	StartByte  int
	OldEndByte int
	NewEndByte int
	StartPoint Point
	OldEndPoint Point
	NewEndPoint Point
}

// Rope is an in-memory text buffer with a line-start index. Every Splice
// or Replace rebuilds the whole line index with one pass over the text;
// the index is not updated incrementally for the edited region only.
type Rope struct {
	text       []byte
	lineStarts []int // byte offset of the first byte of each line
}

// New builds a Rope from a string.
func New(s string) *Rope {
	r := &Rope{text: []byte(s)}
	r.reindex()
	return r
}

func (r *Rope) reindex() {
	r.lineStarts = r.lineStarts[:0]
	r.lineStarts = append(r.lineStarts, 0)
	for i, b := range r.text {
		if b == '\n' {
			r.lineStarts = append(r.lineStarts, i+1)
		}
	}
}

// String returns the full text.
func (r *Rope) String() string { return string(r.text) }

// Len returns the byte length of the buffer.
func (r *Rope) Len() int { return len(r.text) }

// LineCount returns the number of lines (a buffer with no trailing
// newline still has at least one line).
func (r *Rope) LineCount() int { return len(r.lineStarts) }

// lineEnd returns the end byte offset (exclusive of the newline) of line i.
func (r *Rope) lineEnd(i int) int {
	if i+1 < len(r.lineStarts) {
		end := r.lineStarts[i+1] - 1
		if end >= r.lineStarts[i] && end <= len(r.text) && r.text[end] == '\n' {
			return end
		}
		return r.lineStarts[i+1]
	}
	return len(r.text)
}

// Line returns the content of line i, excluding the line terminator.
func (r *Rope) Line(i int) string {
	if i < 0 || i >= len(r.lineStarts) {
		return ""
	}
	start := r.lineStarts[i]
	end := r.lineEnd(i)
	if end < start {
		end = start
	}
	return string(r.text[start:end])
}

// LineStartByte returns the byte offset of the start of line i.
func (r *Rope) LineStartByte(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(r.lineStarts) {
		return len(r.text)
	}
	return r.lineStarts[i]
}

// ByteToPoint converts an absolute byte offset to a (row, byte-column) Point.
func (r *Rope) ByteToPoint(offset int) Point {
	if offset < 0 {
		offset = 0
	}
	if offset > len(r.text) {
		offset = len(r.text)
	}
	lo, hi := 0, len(r.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if r.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Point{Row: lo, Column: offset - r.lineStarts[lo]}
}

// PointToByte converts a (row, byte-column) Point back to an absolute offset.
func (r *Rope) PointToByte(p Point) int {
	if p.Row < 0 {
		return 0
	}
	if p.Row >= len(r.lineStarts) {
		return len(r.text)
	}
	start := r.lineStarts[p.Row]
	end := r.lineEnd(p.Row)
	offset := start + p.Column
	if offset > end {
		offset = end
	}
	return offset
}

// UTF16Len returns the number of UTF-16 code units line i's content decodes
// to (no line terminator included).
func (r *Rope) UTF16Len(i int) int {
	line := r.Line(i)
	n := 0
	for _, ru := range line {
		if ru > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// HasWideChars reports whether line i contains any rune whose UTF-8 and
// UTF-16 encodings are not both exactly one code unit long -- i.e. any
// non-ASCII or surrogate-pair character.
func (r *Rope) HasWideChars(i int) bool {
	line := r.Line(i)
	for _, b := range []byte(line) {
		if b >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

// WideRows returns the set of line indices for which HasWideChars is true,
// computed with a single pass over the buffer.
func (r *Rope) WideRows() map[int]struct{} {
	wide := make(map[int]struct{})
	for i := 0; i < r.LineCount(); i++ {
		if r.HasWideChars(i) {
			wide[i] = struct{}{}
		}
	}
	return wide
}

// byteColToUTF16 converts a byte column within line i to a UTF-16 code-unit
// column by decoding the line's prefix.
func (r *Rope) byteColToUTF16(line int, byteCol int) int {
	content := r.Line(line)
	if byteCol > len(content) {
		byteCol = len(content)
	}
	units := 0
	for _, ru := range content[:byteCol] {
		if ru > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return units
}

// LSPRange converts a byte span into an LSP Range using UTF-16 columns.
func LSPRange(span ByteSpan, r *Rope) protocol.Range {
	start := r.ByteToPoint(span.Start)
	end := r.ByteToPoint(span.End)
	return protocol.Range{
		Start: protocol.Position{
			Line:      uint32(start.Row),
			Character: uint32(r.byteColToUTF16(start.Row, start.Column)),
		},
		End: protocol.Position{
			Line:      uint32(end.Row),
			Character: uint32(r.byteColToUTF16(end.Row, end.Column)),
		},
	}
}

// Splice replaces the bytes in [startByte, endByte) with newText and
// returns the Edit describing the change in the shape a parser facade
// needs to reuse unaffected subtrees on the next incremental parse.
func (r *Rope) Splice(startByte, endByte int, newText string) Edit {
	if startByte < 0 {
		startByte = 0
	}
	if endByte > len(r.text) {
		endByte = len(r.text)
	}
	if endByte < startByte {
		endByte = startByte
	}
	startPoint := r.ByteToPoint(startByte)
	oldEndPoint := r.ByteToPoint(endByte)

	out := make([]byte, 0, len(r.text)-(endByte-startByte)+len(newText))
	out = append(out, r.text[:startByte]...)
	out = append(out, newText...)
	out = append(out, r.text[endByte:]...)
	r.text = out
	r.reindex()

	newEndByte := startByte + len(newText)
	return Edit{
		StartByte:   startByte,
		OldEndByte:  endByte,
		NewEndByte:  newEndByte,
		StartPoint:  startPoint,
		OldEndPoint: oldEndPoint,
		NewEndPoint: r.ByteToPoint(newEndByte),
	}
}

// Replace discards the current buffer entirely, replacing it with s.
func (r *Rope) Replace(s string) {
	r.text = []byte(s)
	r.reindex()
}

// Clone returns an independent copy of the Rope.
func (r *Rope) Clone() *Rope {
	out := &Rope{text: append([]byte(nil), r.text...)}
	out.lineStarts = append([]int(nil), r.lineStarts...)
	return out
}

// UpdateText applies every content change in params to r, in order, and
// reports whether any change lacked a Range -- callers that get back true
// must discard any incremental-parse hint and reparse from scratch.
func UpdateText(r *Rope, changes []interface{}) (wholeFile bool, edits []Edit) {
	for _, raw := range changes {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				r.Replace(change.Text)
				wholeFile = true
				edits = nil
				continue
			}
			span := rangeToByteSpan(r, change.Range)
			edits = append(edits, r.Splice(span.Start, span.End, change.Text))
		case protocol.TextDocumentContentChangeEventWhole:
			r.Replace(change.Text)
			wholeFile = true
			edits = nil
		}
	}
	return wholeFile, edits
}

func rangeToByteSpan(r *Rope, rng *protocol.Range) ByteSpan {
	if rng == nil {
		return ByteSpan{Start: 0, End: r.Len()}
	}
	start := utf16PositionToByte(r, rng.Start)
	end := utf16PositionToByte(r, rng.End)
	return ByteSpan{Start: start, End: end}
}

func utf16PositionToByte(r *Rope, pos protocol.Position) int {
	line := int(pos.Line)
	content := r.Line(line)
	target := int(pos.Character)
	units := 0
	byteOff := 0
	for _, ru := range content {
		if units >= target {
			break
		}
		size := utf8.RuneLen(ru)
		byteOff += size
		if ru > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return r.LineStartByte(line) + byteOff
}
