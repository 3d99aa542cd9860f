// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pathmatch resolves concrete URL paths against ":name" style
// path templates.
package pathmatch

import (
	"cmp"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/z5labs/contract/concurrent"
)

// Match is a template which matched a concrete path along with the
// values bound to its path parameters.
type Match struct {
	Template string
	Params   map[string]string
}

// NoPathError is returned when no template matches a path.
type NoPathError struct {
	Path string
}

func (e NoPathError) Error() string {
	return fmt.Sprintf("no path template matches: %s", e.Path)
}

// Normalize collapses runs of "/" into one and drops a trailing "/"
// from any path other than the root.
func Normalize(path string) string {
	var sb strings.Builder
	sb.Grow(len(path))

	prevSlash := false
	for _, r := range path {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		sb.WriteRune(r)
	}

	s := sb.String()
	if len(s) > 1 {
		s = strings.TrimSuffix(s, "/")
	}
	return s
}

type segment struct {
	literal string
	param   string
}

func (s segment) isParam() bool {
	return s.param != ""
}

type pattern struct {
	template string
	segments []segment
	literals int
}

func compile(template string) pattern {
	parts := strings.Split(Normalize(template), "/")

	p := pattern{
		template: template,
		segments: make([]segment, len(parts)),
	}
	for i, part := range parts {
		name, ok := strings.CutPrefix(part, ":")
		if ok && name != "" {
			p.segments[i] = segment{param: name}
			continue
		}
		p.segments[i] = segment{literal: part}
		p.literals++
	}
	return p
}

func (p pattern) match(parts []string) (map[string]string, bool) {
	if len(parts) != len(p.segments) {
		return nil, false
	}

	params := make(map[string]string)
	for i, seg := range p.segments {
		part := parts[i]
		if !seg.isParam() {
			if seg.literal != part {
				return nil, false
			}
			continue
		}
		if part == "" {
			return nil, false
		}

		v, err := url.PathUnescape(part)
		if err != nil {
			v = part
		}
		params[seg.param] = v
	}
	return params, true
}

// Matcher matches paths against a fixed set of templates. Compiled
// templates are memoized so a Matcher should be reused for the lifetime
// of the templates it was built from. A Matcher is safe for concurrent use.
type Matcher struct {
	templates []string
	compiled  *concurrent.Cache[string, pattern]
}

// New initializes a [Matcher] for the given templates.
func New(templates []string) *Matcher {
	return &Matcher{
		templates: slices.Clone(templates),
		compiled:  concurrent.NewCache[string, pattern](),
	}
}

// Match returns every template matching path, most specific first.
// A template matches when it has the same number of segments as path,
// its literal segments are identical to those of path and each of its
// parameters binds a non-empty segment.
//
// Templates are ordered by descending number of literal segments, then
// by preferring a literal over a parameter at the first position where
// two templates differ, then lexically.
func (m *Matcher) Match(path string) ([]Match, error) {
	parts := strings.Split(Normalize(path), "/")

	type candidate struct {
		pattern
		params map[string]string
	}

	var candidates []candidate
	for _, t := range m.templates {
		p, _ := m.compiled.GetOr(t, func() (pattern, error) {
			return compile(t), nil
		})

		params, ok := p.match(parts)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{pattern: p, params: params})
	}
	if len(candidates) == 0 {
		return nil, NoPathError{Path: path}
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		return compareSpecificity(a.pattern, b.pattern)
	})

	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = Match{
			Template: c.template,
			Params:   c.params,
		}
	}
	return matches, nil
}

// Best returns the most specific template matching path.
func (m *Matcher) Best(path string) (Match, error) {
	matches, err := m.Match(path)
	if err != nil {
		return Match{}, err
	}
	return matches[0], nil
}

func compareSpecificity(a, b pattern) int {
	if c := cmp.Compare(b.literals, a.literals); c != 0 {
		return c
	}
	for i := range min(len(a.segments), len(b.segments)) {
		ap, bp := a.segments[i].isParam(), b.segments[i].isParam()
		if ap == bp {
			continue
		}
		if bp {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.template, b.template)
}
