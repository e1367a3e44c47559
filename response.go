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

import (
	"strings"

	"github.com/rivaas-dev/restmachine/header"
)

func lowerHeaderName(name string) string {
	return strings.ToLower(name)
}

// Response is the terminal result of Application.Execute (spec.md §3.1).
//
// Invariant: a Response with Status 204 or 304 always carries an empty
// Body, and Build strips any Content-Length the caller attempted to
// set for those statuses — the core never emits one itself, but a hostile
// or buggy caller of ResponseBuilder must not be able to violate the
// invariant (spec.md §8 property 7).
type Response struct {
	Status  int
	Headers *header.Map
	Body    []byte
}

// ResponseBuilder accumulates status, headers, and body before the decision
// machine freezes them into a Response at a terminal node.
type ResponseBuilder struct {
	status  int
	headers *header.Map
	body    []byte
}

// NewResponseBuilder returns a builder defaulted to 200 OK with empty
// headers.
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{status: 200, headers: header.New()}
}

// SetStatus sets the response status code.
func (b *ResponseBuilder) SetStatus(status int) *ResponseBuilder {
	b.status = status
	return b
}

// SetHeader sets a single header, replacing any existing values.
func (b *ResponseBuilder) SetHeader(name, value string) *ResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// AddHeader appends a header value without replacing existing ones.
func (b *ResponseBuilder) AddHeader(name, value string) *ResponseBuilder {
	b.headers.Add(name, value)
	return b
}

// SetBody sets the response body.
func (b *ResponseBuilder) SetBody(body []byte) *ResponseBuilder {
	b.body = body
	return b
}

// Build freezes the builder into a Response, enforcing the 204/304
// body/Content-Length invariant.
func (b *ResponseBuilder) Build() *Response {
	status := b.status
	headers := b.headers
	body := b.body

	if status == 204 || status == 304 {
		body = nil
		headers.Del("Content-Length")
	}

	return &Response{Status: status, Headers: headers, Body: body}
}

// MergeHeaders overlays overrides onto the builder's current headers,
// replacing any name present in overrides (spec.md §4.6.1 "headers merged
// over defaults").
func (b *ResponseBuilder) MergeHeaders(overrides *header.Map) *ResponseBuilder {
	if overrides == nil {
		return b
	}
	cleared := make(map[string]bool)
	overrides.Range(func(name, value string) bool {
		if !cleared[lowerHeaderName(name)] {
			b.headers.Del(name)
			cleared[lowerHeaderName(name)] = true
		}
		b.headers.Add(name, value)
		return true
	})
	return b
}
