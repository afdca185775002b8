package scope

import (
	"fmt"
	"strings"
)

// maxBraceExpansion bounds the number of strings a single pattern may
// expand to.
const maxBraceExpansion = 4096

// ExpandBraces expands shell-style brace alternatives.
//
//	users/{1,2}             users/1 users/2
//	{users/1,orders/{a,b}}  users/1 orders/a orders/b
//	users/{a,b}-{x,y}       users/a-x users/a-y users/b-x users/b-y
//
// Text outside braces is literal. Commas only separate alternatives inside
// braces. Unbalanced braces are an error.
func ExpandBraces(pattern string) ([]string, error) {
	p := &braceParser{src: pattern}
	out, err := p.parseSequence(false)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type braceParser struct {
	src string
	pos int
}

// parseSequence parses literal text and brace groups. When nested, it stops
// (without consuming) at a top-level ',' or '}'.
func (p *braceParser) parseSequence(nested bool) ([]string, error) {
	results := []string{""}
	var lit strings.Builder

	flush := func() {
		if lit.Len() == 0 {
			return
		}
		for i := range results {
			results[i] += lit.String()
		}
		lit.Reset()
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '{':
			flush()
			open := p.pos
			p.pos++
			alts, err := p.parseAlternatives(open)
			if err != nil {
				return nil, err
			}
			results, err = product(results, alts)
			if err != nil {
				return nil, err
			}
		case c == '}' && !nested:
			return nil, fmt.Errorf("unexpected '}' at offset %d", p.pos)
		case (c == '}' || c == ',') && nested:
			flush()
			return results, nil
		default:
			lit.WriteByte(c)
			p.pos++
		}
	}

	if nested {
		return nil, fmt.Errorf("unclosed '{'")
	}
	flush()
	return results, nil
}

// parseAlternatives parses the comma-separated alternatives of a group whose
// '{' is at offset open. It consumes the closing '}'.
func (p *braceParser) parseAlternatives(open int) ([]string, error) {
	var alts []string
	for {
		seq, err := p.parseSequence(true)
		if err != nil {
			return nil, fmt.Errorf("brace at offset %d: %w", open, err)
		}
		alts = append(alts, seq...)

		c := p.src[p.pos]
		p.pos++
		if c == '}' {
			return alts, nil
		}
	}
}

func product(prefixes, suffixes []string) ([]string, error) {
	if len(prefixes)*len(suffixes) > maxBraceExpansion {
		return nil, fmt.Errorf("pattern expands to more than %d ids", maxBraceExpansion)
	}
	out := make([]string, 0, len(prefixes)*len(suffixes))
	for _, pre := range prefixes {
		for _, suf := range suffixes {
			out = append(out, pre+suf)
		}
	}
	return out, nil
}
