package semtok

// semanticToken is one LSP SemanticToken tuple, kept as its own struct
// (rather than the raw 5-uint32 wire layout) so encodeDelta can compare
// tokens structurally the way color.rs compares SemanticToken values
// directly.
type semanticToken struct {
	deltaLine      uint32
	deltaStart     uint32
	length         uint32
	tokenType      uint32
	tokenModifiers uint32
}

// encode converts normalized, sorted, non-overlapping absTokens into the
// delta-encoded LSP token stream, splitting any token that spans more
// than one line into one sub-token per line -- color.rs's else-branch
// for `i.range.start.line != i.range.end.line`.
func encode(tokens []absToken, lineLength func(line int) uint32) []semanticToken {
	var out []semanticToken
	var lastLine, lastChar int
	have := false

	push := func(line, char int, length uint32, kind uint32) {
		var dl, dc uint32
		if have {
			dl = uint32(line - lastLine)
			if line == lastLine {
				dc = uint32(char - lastChar)
			} else {
				dc = uint32(char)
			}
		} else {
			dl = uint32(line)
			dc = uint32(char)
		}
		out = append(out, semanticToken{deltaLine: dl, deltaStart: dc, length: length, tokenType: kind})
		lastLine, lastChar = line, char
		have = true
	}

	for _, t := range tokens {
		if t.startLine == t.endLine {
			push(t.startLine, t.startChar, uint32(t.endChar-t.startChar), t.kind)
			continue
		}
		firstLen := lineLength(t.startLine) - uint32(t.startChar)
		push(t.startLine, t.startChar, firstLen, t.kind)
		for l := t.startLine + 1; l < t.endLine; l++ {
			push(l, 0, lineLength(l), t.kind)
		}
		push(t.endLine, 0, uint32(t.endChar), t.kind)
	}
	return out
}

// flatten converts the structured token stream into the raw wire
// format: 5 uint32 per token, in order.
func flatten(tokens []semanticToken) []uint32 {
	out := make([]uint32, 0, len(tokens)*5)
	for _, t := range tokens {
		out = append(out, t.deltaLine, t.deltaStart, t.length, t.tokenType, t.tokenModifiers)
	}
	return out
}

// Edit is one SemanticTokensEdit: replace deleteCount tokens starting at
// start with data (data is nil for a pure deletion).
type Edit struct {
	Start       uint32
	DeleteCount uint32
	Data        []uint32
}

// diff computes the edit script turning old into new using the same
// longest-common-prefix-then-suffix heuristic as FileState::diff: cheap,
// not minimal, but sufficient because consecutive edits to one file
// rarely reshuffle more than a small run of tokens.
func diff(old, new []semanticToken) []Edit {
	prefix := 0
	for prefix < len(old) && prefix < len(new) && old[prefix] == new[prefix] {
		prefix++
	}

	if len(old) < len(new) {
		grow := len(new) - len(old)
		if suffixMatches(old[prefix:], new[prefix+grow:]) {
			return []Edit{{Start: uint32(prefix), DeleteCount: 0, Data: flatten(new[prefix : prefix+grow])}}
		}
	} else if len(old) > len(new) {
		shrink := len(old) - len(new)
		if suffixMatches(old[prefix+shrink:], new[prefix:]) {
			return []Edit{{Start: uint32(prefix), DeleteCount: uint32(shrink), Data: nil}}
		}
	}

	return []Edit{{Start: uint32(prefix), DeleteCount: uint32(len(old) - prefix), Data: flatten(new[prefix:])}}
}

func suffixMatches(a, b []semanticToken) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
