package guard

import (
	"strings"

	"github.com/jrsteele09/go-webadmin/internal/errors"
)

type segmentKind int

const (
	segmentWildcard segmentKind = iota
	segmentOptional
	segmentParam
	segmentStatic
)

type segment struct {
	kind  segmentKind
	value string
}

// pattern is a compiled route path such as /directory/:object/:id?/edit or /*any
type pattern struct {
	raw      string
	segments []segment
}

func compilePattern(path string) (pattern, error) {
	p := pattern{raw: "/" + strings.Trim(path, "/")}
	parts := splitPath(path)
	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, "*"):
			if i != len(parts)-1 {
				return pattern{}, errors.Wrapf(errors.ErrInvalidConfig, "[guard compilePattern] wildcard must be the last segment of %q", path)
			}
			p.segments = append(p.segments, segment{kind: segmentWildcard, value: part[1:]})
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			kind := segmentParam
			if strings.HasSuffix(name, "?") {
				name = strings.TrimSuffix(name, "?")
				kind = segmentOptional
			}
			if name == "" {
				return pattern{}, errors.Wrapf(errors.ErrInvalidConfig, "[guard compilePattern] unnamed parameter in %q", path)
			}
			p.segments = append(p.segments, segment{kind: kind, value: name})
		default:
			p.segments = append(p.segments, segment{kind: segmentStatic, value: part})
		}
	}
	return p, nil
}

// match reports whether parts satisfy the pattern. score ranks the segments that
// took part in the match, most significant first.
func (p pattern) match(parts []string) (params map[string]string, score []segmentKind, ok bool) {
	params = make(map[string]string)
	if !p.matchFrom(0, parts, params, &score) {
		return nil, nil, false
	}
	return params, score, true
}

func (p pattern) matchFrom(i int, parts []string, params map[string]string, score *[]segmentKind) bool {
	if i == len(p.segments) {
		return len(parts) == 0
	}

	seg := p.segments[i]
	mark := len(*score)
	switch seg.kind {
	case segmentStatic:
		if len(parts) == 0 || parts[0] != seg.value {
			return false
		}
		*score = append(*score, segmentStatic)
		if p.matchFrom(i+1, parts[1:], params, score) {
			return true
		}
	case segmentParam:
		if len(parts) == 0 {
			return false
		}
		params[seg.value] = parts[0]
		*score = append(*score, segmentParam)
		if p.matchFrom(i+1, parts[1:], params, score) {
			return true
		}
		delete(params, seg.value)
	case segmentOptional:
		if len(parts) > 0 {
			params[seg.value] = parts[0]
			*score = append(*score, segmentOptional)
			if p.matchFrom(i+1, parts[1:], params, score) {
				return true
			}
			delete(params, seg.value)
			*score = (*score)[:mark]
		}
		return p.matchFrom(i+1, parts, params, score)
	case segmentWildcard:
		if seg.value != "" {
			params[seg.value] = strings.Join(parts, "/")
		}
		if len(parts) > 0 {
			*score = append(*score, segmentWildcard)
		}
		return true
	}
	*score = (*score)[:mark]
	return false
}

// moreSpecific orders two match scores: static beats param beats optional beats
// wildcard, compared segment by segment. On a shared prefix the shorter score wins.
func moreSpecific(a, b []segmentKind) (bool, bool) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] > b[i], true
		}
	}
	if len(a) != len(b) {
		return len(a) < len(b), true
	}
	return false, false
}

func splitPath(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func joinPath(parent, child string) string {
	joined := strings.TrimRight(parent, "/") + "/" + strings.TrimLeft(child, "/")
	if joined != "/" {
		joined = strings.TrimRight(joined, "/")
	}
	return joined
}
