// Package fileid gives every URI flowing through the pipeline a small,
// comparable identity so that AstDocument/ConfigDocument/RootGraph never
// need to carry live references to one another.
package fileid

import "github.com/cespare/xxhash/v2"

// FileID is a stable identifier for a document, derived from its URI.
// Two FileIDs are equal iff the URIs they were built from are equal.
type FileID uint64

// New derives the FileID for a URI string.
func New(uri string) FileID {
	return FileID(xxhash.Sum64String(uri))
}

func (id FileID) String() string {
	return formatHex(uint64(id))
}

func formatHex(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}
