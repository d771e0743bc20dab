package guard

import (
	"strings"

	"github.com/jrsteele09/go-webadmin/internal/errors"
)

type Kind int

const (
	Render Kind = iota
	Redirect
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Resolution is the outcome of resolving one path
type Resolution struct {
	Kind    Kind              `json:"kind"`
	Path    string            `json:"path"`
	Route   string            `json:"route,omitempty"`
	View    string            `json:"view,omitempty"`
	Layouts []string          `json:"layouts,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Target  string            `json:"target,omitempty"`
}

type leaf struct {
	pattern pattern
	chain   []Route
	order   int
}

// Router matches paths against a compiled route tree
type Router struct {
	leaves []leaf
}

func NewRouter(routes ...Route) (*Router, error) {
	r := &Router{}
	for _, route := range routes {
		if err := r.add("/", route, nil); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Router) add(parent string, route Route, chain []Route) error {
	if route.Condition != nil && route.Redirect == "" {
		return errors.Wrapf(errors.ErrInvalidConfig, "[Router add] protected route %q has no redirect", route.Path)
	}

	path := joinPath(parent, route.Path)
	chain = append(append([]Route(nil), chain...), route)

	if len(route.Children) == 0 {
		p, err := compilePattern(path)
		if err != nil {
			return err
		}
		r.leaves = append(r.leaves, leaf{pattern: p, chain: chain, order: len(r.leaves)})
		return nil
	}

	for _, child := range route.Children {
		if err := r.add(path, child, chain); err != nil {
			return err
		}
	}
	return nil
}

// Patterns lists every routable path in declaration order
func (r *Router) Patterns() []string {
	patterns := make([]string, 0, len(r.leaves))
	for _, l := range r.leaves {
		patterns = append(patterns, l.pattern.raw)
	}
	return patterns
}

// Resolve matches path and evaluates every condition along the matched chain, outermost
// first. The first condition that does not hold decides the redirect.
func (r *Router) Resolve(path string) Resolution {
	parts := splitPath(path)
	normalized := joinPath("/", strings.Join(parts, "/"))

	var (
		best       *leaf
		bestScore  []segmentKind
		bestParams map[string]string
	)
	for i := range r.leaves {
		l := &r.leaves[i]
		params, score, ok := l.pattern.match(parts)
		if !ok {
			continue
		}
		if best != nil {
			if better, decided := moreSpecific(score, bestScore); !decided || !better {
				continue
			}
		}
		best, bestScore, bestParams = l, score, params
	}

	if best == nil {
		return Resolution{Kind: NotFound, Path: normalized}
	}

	for _, route := range best.chain {
		if route.Condition != nil && !route.Condition() {
			return Resolution{
				Kind:   Redirect,
				Path:   normalized,
				Route:  best.pattern.raw,
				Target: route.Redirect,
			}
		}
	}

	resolution := Resolution{
		Kind:  Render,
		Path:  normalized,
		Route: best.pattern.raw,
		View:  best.chain[len(best.chain)-1].View,
	}
	if len(bestParams) > 0 {
		resolution.Params = bestParams
	}
	for _, route := range best.chain[:len(best.chain)-1] {
		if route.View != "" {
			resolution.Layouts = append(resolution.Layouts, route.View)
		}
	}
	if best.chain[len(best.chain)-1].NotFound {
		resolution.Kind = NotFound
	}
	return resolution
}
