// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package route

import (
	"fmt"
	"strings"

	"github.com/rivaas-dev/restmachine/rmerrors"
)

// segment is one path-template component: either a literal that must match
// exactly, or a named parameter that captures exactly one path segment.
type segment struct {
	literal   string
	isParam   bool
	paramName string
}

// Template is a compiled path template (spec.md §4.3). Segments are either
// literal or `{name}`; trailing slashes are significant only if present in
// the template, matching the teacher router's literal/dynamic split in
// compiler/static.go and compiler/dynamic.go, minus that file's bloom-filter
// hot-path optimization layer — this module's hot path is already bounded by
// the per-route capability flags computed at registration (spec.md §3.2),
// so a second optimization layer for routing itself isn't warranted.
type Template struct {
	Raw           string
	segments      []segment
	trailingSlash bool
}

// Compile parses path into a Template. Named parameters are written
// `{name}` and must occupy a whole segment; a segment may not mix literal
// text and a parameter.
func Compile(path string) (*Template, error) {
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("restmachine: path template must start with '/': %q: %w", path, rmerrors.ErrInvalidPathTemplate)
	}

	trailingSlash := len(path) > 1 && strings.HasSuffix(path, "/")
	trimmed := strings.Trim(path, "/")

	var segs []segment
	if trimmed != "" {
		parts := strings.Split(trimmed, "/")
		segs = make([]segment, 0, len(parts))
		seen := make(map[string]struct{}, len(parts))
		for _, p := range parts {
			if p == "" {
				return nil, fmt.Errorf("restmachine: empty path segment in %q: %w", path, rmerrors.ErrInvalidPathTemplate)
			}
			if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
				name := p[1 : len(p)-1]
				if name == "" {
					return nil, fmt.Errorf("restmachine: empty parameter name in %q: %w", path, rmerrors.ErrInvalidPathTemplate)
				}
				if _, dup := seen[name]; dup {
					return nil, fmt.Errorf("restmachine: duplicate parameter %q in %q: %w", name, path, rmerrors.ErrInvalidPathTemplate)
				}
				seen[name] = struct{}{}
				segs = append(segs, segment{isParam: true, paramName: name})
			} else {
				segs = append(segs, segment{literal: p})
			}
		}
	}

	return &Template{Raw: path, segments: segs, trailingSlash: trailingSlash}, nil
}

// Key returns the canonical string a Registry uses to detect conflicting
// registrations for the same template, independent of parameter names.
func (t *Template) Key() string {
	var b strings.Builder
	if t.trailingSlash {
		b.WriteByte('/')
	}
	for _, s := range t.segments {
		b.WriteByte('/')
		if s.isParam {
			b.WriteString("{}")
		} else {
			b.WriteString(s.literal)
		}
	}
	if len(t.segments) == 0 {
		b.WriteByte('/')
	}
	return b.String()
}

// Expand substitutes params into the template's named segments, producing a
// concrete path for reverse routing (SPEC_FULL.md §5 "Named routes and
// reverse URL generation"). It returns an error if params is missing a
// value the template requires.
func (t *Template) Expand(params map[string]string) (string, error) {
	var b strings.Builder
	if len(t.segments) == 0 {
		b.WriteByte('/')
	}
	for _, s := range t.segments {
		b.WriteByte('/')
		if !s.isParam {
			b.WriteString(s.literal)
			continue
		}
		v, ok := params[s.paramName]
		if !ok || v == "" {
			return "", fmt.Errorf("restmachine: missing value for path parameter %q in %q: %w", s.paramName, t.Raw, rmerrors.ErrInvalidPathTemplate)
		}
		b.WriteString(v)
	}
	if t.trailingSlash && len(t.segments) > 0 {
		b.WriteByte('/')
	}
	return b.String(), nil
}

// Match attempts to match path against the template, returning captured
// path parameters on success. path may carry a trailing query string (the
// shape Request.Path returns); it is stripped before matching.
func (t *Template) Match(path string) (map[string]string, bool) {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	hasTrailingSlash := len(path) > 1 && strings.HasSuffix(path, "/")
	if t.trailingSlash && !hasTrailingSlash && len(t.segments) > 0 {
		return nil, false
	}

	trimmed := strings.Trim(path, "/")
	var parts []string
	if trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}
	if len(parts) != len(t.segments) {
		return nil, false
	}

	var params map[string]string
	for i, s := range t.segments {
		if s.isParam {
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, len(t.segments))
			}
			params[s.paramName] = parts[i]
			continue
		}
		if parts[i] != s.literal {
			return nil, false
		}
	}
	if params == nil {
		params = map[string]string{}
	}
	return params, true
}
