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

// Package negotiate implements HTTP content negotiation (spec.md §4.4):
// parsing Accept and Content-Type headers with quality factors, and
// selecting the best matching renderer or parser a route has registered.
package negotiate

import (
	"sort"
	"strconv"
	"strings"
)

// Spec is one parsed entry of an Accept-style header.
type Spec struct {
	Type    string // e.g. "application", or "*"
	Subtype string // e.g. "json", or "*"
	Params  map[string]string
	Q       float64
}

// MediaType reconstructs "type/subtype" for this spec.
func (s Spec) MediaType() string {
	return s.Type + "/" + s.Subtype
}

// ParseAccept parses an Accept header into entries ordered by descending
// quality (stable on ties, preserving header order), per spec.md §4.4.
// Entries with q=0 are kept (callers must treat them as explicit rejections)
// and q is clamped to [0, 1].
func ParseAccept(header string) []Spec {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	specs := make([]Spec, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		specs = append(specs, parsePart(part))
	}
	sort.SliceStable(specs, func(i, j int) bool { return specs[i].Q > specs[j].Q })
	return specs
}

func parsePart(part string) Spec {
	segments := strings.Split(part, ";")
	mediaType := strings.TrimSpace(segments[0])
	typ, subtype := "*", "*"
	if slash := strings.IndexByte(mediaType, '/'); slash >= 0 {
		typ = strings.TrimSpace(mediaType[:slash])
		subtype = strings.TrimSpace(mediaType[slash+1:])
	} else if mediaType != "" {
		typ = mediaType
	}

	spec := Spec{Type: typ, Subtype: subtype, Q: 1.0}
	for _, raw := range segments[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		eq := strings.IndexByte(raw, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(raw[:eq])
		val := strings.TrimSpace(raw[eq+1:])
		if strings.EqualFold(key, "q") {
			if q, err := strconv.ParseFloat(val, 64); err == nil {
				spec.Q = clampQ(q)
			}
			continue
		}
		if spec.Params == nil {
			spec.Params = make(map[string]string)
		}
		spec.Params[key] = val
	}
	return spec
}

func clampQ(q float64) float64 {
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}

// ParseContentType parses a Content-Type header into its bare media type and
// parameters (e.g. "application/json; charset=utf-8" -> "application/json",
// {"charset": "utf-8"}).
func ParseContentType(header string) (mediaType string, params map[string]string) {
	segments := strings.Split(header, ";")
	mediaType = strings.TrimSpace(segments[0])
	for _, raw := range segments[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		eq := strings.IndexByte(raw, '=')
		if eq < 0 {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[strings.TrimSpace(raw[:eq])] = strings.Trim(strings.TrimSpace(raw[eq+1:]), `"`)
	}
	return mediaType, params
}

// Renderer turns a handler's return value into bytes of MediaType
// (spec.md §6 "Renderer contract").
type Renderer struct {
	MediaType string
	Render    func(value any) ([]byte, error)
}

// Parser turns request bytes of MediaType into a structured value
// (spec.md §6 "Parser" / glossary).
type Parser struct {
	MediaType string
	Parse     func(body []byte) (any, error)
}

// specificity scores a candidate media type against a parsed Accept entry
// per RFC 7231 §5.3.2: "*/*" < "type/*" < "type/subtype" < "type/subtype;param=...".
func specificity(candidateType, candidateSubtype string, spec Spec) (matches bool, score int) {
	switch {
	case spec.Type == "*" && spec.Subtype == "*":
		return true, 0
	case spec.Type == candidateType && spec.Subtype == "*":
		return true, 1
	case spec.Type == candidateType && spec.Subtype == candidateSubtype:
		if len(spec.Params) > 0 {
			return true, 3
		}
		return true, 2
	default:
		return false, -1
	}
}

// explicitlyRejected reports whether any q=0 spec matches (type, subtype)
// exactly or via a wildcard — RFC 7231 §5.3.1 treats q=0 as "not
// acceptable" rather than merely "lowest priority", so a candidate it
// matches must never be selected regardless of what a broader wildcard spec
// would otherwise score it.
func explicitlyRejected(typ, subtype string, specs []Spec) bool {
	for _, spec := range specs {
		if spec.Q > 0 {
			continue
		}
		if matched, _ := specificity(typ, subtype, spec); matched {
			return true
		}
	}
	return false
}

// SelectRenderer picks the renderer with the highest-quality, most-specific
// match against accept among candidates, per spec.md §4.4. candidates is
// tried in the order supplied by the caller — route-local renderers should
// precede Application defaults so route-local wins ties, per spec.md's tie
// break "(specificity, route-local over default, registration order)".
func SelectRenderer(accept string, candidates []Renderer) (*Renderer, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	specs := ParseAccept(accept)
	if len(specs) == 0 {
		r := candidates[0]
		return &r, true
	}

	bestIdx := -1
	bestQ := -1.0
	bestScore := -1
	for i, cand := range candidates {
		typ, subtype := splitMediaType(cand.MediaType)
		if explicitlyRejected(typ, subtype, specs) {
			continue
		}
		for _, spec := range specs {
			if spec.Q <= 0 {
				continue
			}
			matched, score := specificity(typ, subtype, spec)
			if !matched {
				continue
			}
			if spec.Q > bestQ || (spec.Q == bestQ && score > bestScore) {
				bestIdx = i
				bestQ = spec.Q
				bestScore = score
			}
		}
	}
	if bestIdx < 0 {
		return nil, false
	}
	r := candidates[bestIdx]
	return &r, true
}

// SelectParser finds the parser registered for the request's Content-Type.
func SelectParser(contentType string, candidates []Parser) (*Parser, bool) {
	mediaType, _ := ParseContentType(contentType)
	if mediaType == "" {
		return nil, false
	}
	for _, p := range candidates {
		if strings.EqualFold(p.MediaType, mediaType) {
			cp := p
			return &cp, true
		}
	}
	return nil, false
}

func splitMediaType(mt string) (typ, subtype string) {
	if slash := strings.IndexByte(mt, '/'); slash >= 0 {
		return mt[:slash], mt[slash+1:]
	}
	return mt, "*"
}
