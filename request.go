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
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rivaas-dev/restmachine/header"
)

// ClientCert is the parsed certificate record spec.md §3.1 allows a TLS
// adapter to attach to a Request.
type ClientCert struct {
	Subject   string
	Issuer    string
	Serial    string
	NotBefore time.Time
	NotAfter  time.Time
}

// Request is the immutable per-invocation request described in spec.md
// §3.1. Adapters construct a Request and hand it to Application.Execute;
// the core never parses one from raw bytes (spec.md §1 Non-goals).
type Request struct {
	method      string
	path        string
	pathParams  map[string]string
	queryParams map[string][]string
	headers     *header.Map
	body        []byte
	tls         bool
	clientCert  *ClientCert
	id          string
}

// NewRequest builds a Request from data an adapter has already parsed.
// queryParams is parsed from path's query string if not supplied via
// WithQueryParams.
func NewRequest(method, path string, headers *header.Map, body []byte, opts ...RequestOption) *Request {
	if headers == nil {
		headers = header.New()
	}
	r := &Request{
		method:      method,
		path:        path,
		headers:     headers,
		body:        body,
		queryParams: parseQuery(path),
		id:          uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func parseQuery(path string) map[string][]string {
	q := ""
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		q = path[idx+1:]
	}
	if q == "" {
		return map[string][]string{}
	}
	values, err := url.ParseQuery(q)
	if err != nil {
		return map[string][]string{}
	}
	return map[string][]string(values)
}

// RequestOption customizes a Request built by NewRequest.
type RequestOption func(*Request)

// WithTLS marks the request as having arrived over TLS.
func WithTLS(clientCert *ClientCert) RequestOption {
	return func(r *Request) {
		r.tls = true
		r.clientCert = clientCert
	}
}

// WithQueryParams overrides the query parameters parsed from path.
func WithQueryParams(q map[string][]string) RequestOption {
	return func(r *Request) {
		r.queryParams = q
	}
}

// WithRequestID overrides the generated request id (e.g. to propagate one
// received from an upstream proxy).
func WithRequestID(id string) RequestOption {
	return func(r *Request) {
		r.id = id
	}
}

// withPathParams attaches the parameters captured by a successful route
// match; called by the decision machine, not by adapters.
func (r *Request) withPathParams(params map[string]string) *Request {
	clone := *r
	clone.pathParams = params
	return &clone
}

// Method returns the request's HTTP method.
func (r *Request) Method() string { return r.method }

// Path returns the normalized origin-form path, including any query string.
func (r *Request) Path() string { return r.path }

// PathParam returns the path parameter captured under name, if any.
func (r *Request) PathParam(name string) (string, bool) {
	v, ok := r.pathParams[name]
	return v, ok
}

// PathParams returns all captured path parameters.
func (r *Request) PathParams() map[string]string {
	if r.pathParams == nil {
		return map[string]string{}
	}
	return r.pathParams
}

// QueryParams returns the multi-valued query parameters.
func (r *Request) QueryParams() map[string][]string {
	return r.queryParams
}

// Headers returns the request's case-insensitive header map.
func (r *Request) Headers() *header.Map {
	return r.headers
}

// Body returns the raw request body, or nil if none was sent.
func (r *Request) Body() []byte {
	return r.body
}

// TLS reports whether the request arrived over TLS.
func (r *Request) TLS() bool {
	return r.tls
}

// ClientCert returns the parsed client certificate, if the adapter
// performed mutual TLS and attached one.
func (r *Request) ClientCert() *ClientCert {
	return r.clientCert
}

// RequestID returns this request's synthesized or propagated identifier.
func (r *Request) RequestID() string {
	return r.id
}
