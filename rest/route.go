// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"strings"
)

// RoutePattern converts a ":name" path template into the "{name}" form
// used by chi and OpenAPI.
func RoutePattern(template string) string {
	segs := strings.Split(template, "/")
	for i, seg := range segs {
		name, ok := strings.CutPrefix(seg, ":")
		if ok && name != "" {
			segs[i] = "{" + name + "}"
		}
	}
	return strings.Join(segs, "/")
}

// Template converts a chi route pattern into a ":name" path template.
// Regexp constraints, e.g. "{id:[0-9]+}", are dropped and a trailing
// "/*" wildcard is kept as is.
func Template(pattern string) string {
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		inner, ok := strings.CutPrefix(seg, "{")
		if !ok {
			continue
		}
		inner, ok = strings.CutSuffix(inner, "}")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(inner, ":")
		segs[i] = ":" + name
	}
	return strings.Join(segs, "/")
}

func templateParams(template string) []string {
	var names []string
	for _, seg := range strings.Split(template, "/") {
		name, ok := strings.CutPrefix(seg, ":")
		if ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}
