package model

import (
	"regexp"
	"strconv"
	"strings"
)

// Segment is one step of a Path: either a mapping key or a sequence index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a segment addressing a mapping entry.
func Key(k string) Segment { return Segment{key: k} }

// Index returns a segment addressing a sequence item.
func Index(i int) Segment { return Segment{index: i, isIndex: true} }

// IsIndex reports whether the segment addresses a sequence item.
func (s Segment) IsIndex() bool { return s.isIndex }

// Key returns the mapping key. It is empty for index segments.
func (s Segment) Key() string { return s.key }

// Index returns the sequence index. It is zero for key segments.
func (s Segment) Index() int { return s.index }

var plainKey = regexp.MustCompile(`^[^.\[\]"\s]+$`)

// String renders the segment the way it appears inside a path, without the
// leading dot of key segments.
func (s Segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	if plainKey.MatchString(s.key) {
		return s.key
	}
	return "[" + strconv.Quote(s.key) + "]"
}

// Path is an immutable sequence of segments addressing a location in a
// nested mapping/sequence structure. The zero Path addresses the root.
//
// The textual form uses dots between keys and brackets for indices:
//
//	author[0].name
//	deposit.invenio.depositionMetadata
//	keywords["with.dot"]
type Path struct {
	segs []Segment
}

// NewPath builds a path from segments.
func NewPath(segs ...Segment) Path {
	return Path{segs: append([]Segment(nil), segs...)}
}

// ParsePath parses the textual form of a path.
func ParsePath(s string) (Path, error) {
	var segs []Segment
	needKey := true // at start or right after a dot

	for i := 0; i < len(s); {
		switch s[i] {
		case '.':
			if needKey {
				return Path{}, syntaxError(s, i, "empty segment")
			}
			needKey = true
			i++

		case '[':
			// A quoted key may open the path; everything else in brackets
			// must follow a segment.
			quoted := i+1 < len(s) && s[i+1] == '"'
			if needKey && (i != 0 || !quoted) {
				return Path{}, syntaxError(s, i, "index must follow a key")
			}
			seg, next, err := parseBracket(s, i)
			if err != nil {
				return Path{}, err
			}
			segs = append(segs, seg)
			needKey = false
			i = next

		case ']':
			return Path{}, syntaxError(s, i, "unbalanced ']'")

		default:
			if !needKey {
				return Path{}, syntaxError(s, i, "expected '.' or '['")
			}
			j := i
			for j < len(s) && !strings.ContainsRune(".[]", rune(s[j])) {
				j++
			}
			segs = append(segs, Key(s[i:j]))
			needKey = false
			i = j
		}
	}

	if needKey {
		return Path{}, syntaxError(s, len(s), "empty segment")
	}
	return Path{segs: segs}, nil
}

// parseBracket parses "[123]" or `["quoted key"]` starting at s[i] == '['.
// `[""]` is the empty key, which JSON objects may contain.
// It returns the segment and the offset just past the closing bracket.
func parseBracket(s string, i int) (Segment, int, error) {
	start := i + 1
	if start < len(s) && s[start] == '"' {
		end := start + 1
		for end < len(s) && s[end] != '"' {
			if s[end] == '\\' {
				end++
			}
			end++
		}
		if end >= len(s) {
			return Segment{}, 0, syntaxError(s, i, "unterminated quoted key")
		}
		key, err := strconv.Unquote(s[start : end+1])
		if err != nil {
			return Segment{}, 0, syntaxError(s, start, "invalid quoted key")
		}
		if end+1 >= len(s) || s[end+1] != ']' {
			return Segment{}, 0, syntaxError(s, i, "unbalanced '['")
		}
		return Key(key), end + 2, nil
	}

	end := strings.IndexByte(s[start:], ']')
	if end < 0 {
		return Segment{}, 0, syntaxError(s, i, "unbalanced '['")
	}
	raw := s[start : start+end]
	if raw == "" {
		return Segment{}, 0, syntaxError(s, start, "empty segment")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || strings.HasPrefix(raw, "+") {
		return Segment{}, 0, syntaxError(s, start, "index must be a non-negative integer")
	}
	return Index(n), start + end + 1, nil
}

// MustParsePath is like ParsePath but panics on malformed input.
// It is meant for path constants.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Append returns a new path with segs added at the end.
func (p Path) Append(segs ...Segment) Path {
	out := make([]Segment, 0, len(p.segs)+len(segs))
	out = append(out, p.segs...)
	return Path{segs: append(out, segs...)}
}

// Key returns the child path for a mapping key.
func (p Path) Key(k string) Path { return p.Append(Key(k)) }

// Index returns the child path for a sequence index.
func (p Path) Index(i int) Path { return p.Append(Index(i)) }

// Segments returns a copy of the path's segments.
func (p Path) Segments() []Segment { return append([]Segment(nil), p.segs...) }

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segs) }

// IsRoot reports whether the path has no segments.
func (p Path) IsRoot() bool { return len(p.segs) == 0 }

// Last returns the final segment. It panics on the root path.
func (p Path) Last() Segment { return p.segs[len(p.segs)-1] }

// Parent returns the path without its final segment.
// The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p.segs) == 0 {
		return p
	}
	return Path{segs: p.segs[:len(p.segs)-1]}
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(o Path) bool {
	if len(p.segs) != len(o.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != o.segs[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether q is a leading part of p (or equal to p).
func (p Path) HasPrefix(q Path) bool {
	if len(q.segs) > len(p.segs) {
		return false
	}
	return Path{segs: p.segs[:len(q.segs)]}.Equal(q)
}

// String renders the canonical textual form. ParsePath(p.String()) yields p.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p.segs {
		r := s.String()
		if i > 0 && !strings.HasPrefix(r, "[") {
			b.WriteByte('.')
		}
		b.WriteString(r)
	}
	return b.String()
}
