package scope

import (
	"fmt"
	"regexp"
	"strings"
)

// GlobRegexp translates a node glob into an anchored regular expression with
// the same semantics as SQLite GLOB: '*' matches any run of characters,
// '?' exactly one, [...] a class, with [^...] or [!...] negating it.
//
// The output is valid both for Go's regexp package and for PostgreSQL's
// '~' operator.
func GlobRegexp(pattern string) (string, error) {
	var b strings.Builder
	b.WriteByte('^')

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '[':
			end := classEnd(pattern, i)
			if end < 0 {
				return "", fmt.Errorf("unclosed '[' at offset %d", i)
			}
			writeClass(&b, pattern[i+1:end])
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteByte('$')
	return b.String(), nil
}

// SQLiteGlob translates a node glob into SQLite GLOB syntax. Only a '!'
// directly after a class-opening '[' is a negation, and it becomes '^'.
// Everything else, including a '!' later in a class, is kept verbatim.
func SQLiteGlob(pattern string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '[' {
			b.WriteByte(pattern[i])
			continue
		}
		end := classEnd(pattern, i)
		if end < 0 {
			return "", fmt.Errorf("unclosed '[' at offset %d", i)
		}
		class := pattern[i+1 : end]
		b.WriteByte('[')
		if strings.HasPrefix(class, "!") {
			b.WriteByte('^')
			class = class[1:]
		}
		b.WriteString(class)
		b.WriteByte(']')
		i = end
	}
	return b.String(), nil
}

// classEnd returns the offset of the ']' closing the class opened at start.
// A ']' immediately after '[' or after the negation mark is a literal.
func classEnd(pattern string, start int) int {
	j := start + 1
	if j < len(pattern) && (pattern[j] == '^' || pattern[j] == '!') {
		j++
	}
	if j < len(pattern) && pattern[j] == ']' {
		j++
	}
	for ; j < len(pattern); j++ {
		if pattern[j] == ']' {
			return j
		}
	}
	return -1
}

func writeClass(b *strings.Builder, class string) {
	b.WriteByte('[')
	if strings.HasPrefix(class, "^") || strings.HasPrefix(class, "!") {
		b.WriteByte('^')
		class = class[1:]
	}
	for i := 0; i < len(class); i++ {
		if strings.IndexByte(`\[]^`, class[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(class[i])
	}
	b.WriteByte(']')
}

// MatchGlob reports whether id matches pattern.
func MatchGlob(pattern, id string) (bool, error) {
	expr, err := GlobRegexp(pattern)
	if err != nil {
		return false, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false, fmt.Errorf("compile glob %q: %w", pattern, err)
	}
	return re.MatchString(id), nil
}
