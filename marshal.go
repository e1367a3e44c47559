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

package restmachine

import "github.com/rivaas-dev/restmachine/header"

// returnKind tags which shape a HandlerReturn carries. spec.md §9 ("Design
// Notes") prescribes exactly this tagged union in place of a dynamically
// typed heterogeneous return value: "HandlerReturn = { Bare(Value),
// WithStatus(Value,u16), WithStatusAndHeaders(Value,u16,Headers), Empty,
// Explicit(Response) }".
type returnKind int

const (
	returnBare returnKind = iota
	returnWithStatus
	returnWithStatusAndHeaders
	returnEmpty
	returnExplicit
)

// HandlerReturn is what a handler dependency's Fn returns. Handlers that
// just want to render a value and get 200 (or 201 for POST, per spec.md
// §4.6.1) return it bare — the Go type system doesn't need a wrapper for
// that case, so the constructors below are only needed when a handler wants
// to override status and/or headers, or bypass rendering entirely.
type HandlerReturn struct {
	kind     returnKind
	value    any
	status   int
	headers  *header.Map
	response *Response
}

// Bare wraps an arbitrary value for the renderer, with the default status
// rule of spec.md §4.6.1 (200, or 201 for any POST).
func Bare(value any) HandlerReturn {
	return HandlerReturn{kind: returnBare, value: value}
}

// WithStatus wraps value together with an explicit status override.
func WithStatus(value any, status int) HandlerReturn {
	return HandlerReturn{kind: returnWithStatus, value: value, status: status}
}

// WithStatusAndHeaders wraps value, a status override, and headers to merge
// over whatever the machine would otherwise set.
func WithStatusAndHeaders(value any, status int, headers *header.Map) HandlerReturn {
	return HandlerReturn{kind: returnWithStatusAndHeaders, value: value, status: status, headers: headers}
}

// Empty produces 204 No Content, per spec.md §4.6.1 ("None with method in
// {DELETE, PUT without body echo}").
func Empty() HandlerReturn {
	return HandlerReturn{kind: returnEmpty}
}

// Explicit passes resp through untouched, bypassing content negotiation and
// the default-status rule entirely.
func Explicit(resp *Response) HandlerReturn {
	return HandlerReturn{kind: returnExplicit, response: resp}
}

// normalizeHandlerResult coerces whatever a handler's Fn returned into a
// HandlerReturn: a bare Go value (the common case — most handlers just
// `return someStruct`) becomes returnBare; a HandlerReturn built by one of
// the constructors above passes through; nil becomes returnEmpty.
func normalizeHandlerResult(result any) HandlerReturn {
	switch v := result.(type) {
	case HandlerReturn:
		return v
	case *Response:
		return Explicit(v)
	case nil:
		return Empty()
	default:
		return Bare(v)
	}
}
