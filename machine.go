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
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rivaas-dev/restmachine/conditional"
	"github.com/rivaas-dev/restmachine/container"
	"github.com/rivaas-dev/restmachine/negotiate"
	"github.com/rivaas-dev/restmachine/obslog"
	"github.com/rivaas-dev/restmachine/rmerrors"
	"github.com/rivaas-dev/restmachine/route"
)

// requestContext carries one in-flight request through every decision node.
// It is pooled with sync.Pool, the same trade router/pool.go makes for its
// per-request Context: a fresh allocation per request is exactly the
// per-request garbage pooling exists to avoid.
type requestContext struct {
	ctx   context.Context
	app   *Application
	req   *Request
	route *route.Route
	scope *container.Scope

	resource conditional.Resource

	renderer *negotiate.Renderer
	parser   *negotiate.Parser
}

func (rc *requestContext) reset() {
	*rc = requestContext{}
}

var requestContextPool = sync.Pool{
	New: func() any { return &requestContext{} },
}

func acquireRequestContext() *requestContext {
	return requestContextPool.Get().(*requestContext)
}

func releaseRequestContext(rc *requestContext) {
	rc.reset()
	requestContextPool.Put(rc)
}

// machineStep is one decision node. A non-nil Response is terminal; nil
// means "proceed to the next step". This is a flattened version of the
// teacher's handlers []HandlerFunc / Next() chain in router/context.go: the
// DAG of spec.md §4.6 always visits this module's fourteen node kinds in a
// fixed total order (a route's capability flags make a step a no-op rather
// than branching the control flow), so a plain ordered slice walked
// top-to-bottom expresses it with far less indirection than reproducing the
// teacher's index-into-a-slice continuation style would need.
type machineStep struct {
	name string
	run  func(*requestContext) *Response
}

var machineSteps = []machineStep{
	{"known_method", (*requestContext).stepKnownMethod},
	{"uri_too_long", (*requestContext).stepURITooLong},
	{"route_exists", (*requestContext).stepRouteExists},
	{"service_available", (*requestContext).stepServiceAvailable},
	{"malformed_request", (*requestContext).stepMalformed},
	{"authorized", (*requestContext).stepAuthorized},
	{"forbidden", (*requestContext).stepForbidden},
	{"content_headers_valid", (*requestContext).stepContentHeadersValid},
	{"resource_exists", (*requestContext).stepResourceExists},
	{"conditional", (*requestContext).stepConditional},
	{"content_types_provided", (*requestContext).stepContentTypesProvided},
	{"content_types_accepted", (*requestContext).stepContentTypesAccepted},
	{"validate", (*requestContext).stepValidate},
	{"execute_and_render", (*requestContext).stepExecuteAndRender},
}

// execute runs req through every decision node in order and returns the
// terminal Response. A panic raised by a handler or dependency callable is
// recovered by the container and surfaces as a dependency-error Failure
// (500); any other panic during the run, such as one from a renderer or
// parser, is recovered here and converted to a 500 (spec.md §7 propagation
// policy). Decision nodes themselves never panic on a Failure, they return
// one.
func (a *Application) execute(ctx context.Context, req *Request) (resp *Response) {
	rc := acquireRequestContext()
	defer releaseRequestContext(rc)
	rc.ctx = ctx
	rc.app = a
	rc.req = req

	start := time.Now()
	ctx, span := a.metrics.StartRequest(ctx, req.Method(), req.Path())
	rc.ctx = ctx

	var shortCircuit string
	defer func() {
		if r := recover(); r != nil {
			resp = a.buildError(ctx, rmerrors.New(rmerrors.KindHandlerError, "", fmt.Errorf("panic: %v", r)), req, nil)
			shortCircuit = "panic"
		}
		span.End()
		a.metrics.RecordTerminal(ctx, resp.Status)
		a.logTerminal(req, rc, resp, shortCircuit, time.Since(start))
	}()

	for _, step := range machineSteps {
		nodeStart := time.Now()
		if out := step.run(rc); out != nil {
			a.metrics.RecordNode(ctx, step.name, nodeStart)
			shortCircuit = step.name
			resp = out
			return resp
		}
		a.metrics.RecordNode(ctx, step.name, nodeStart)
	}

	// execute_and_render is always terminal; reaching here is a bug.
	resp = a.buildError(ctx, rmerrors.New(rmerrors.KindHandlerError, "", fmt.Errorf("decision machine fell through all nodes")), req, nil)
	return resp
}

func (a *Application) logTerminal(req *Request, rc *requestContext, resp *Response, shortCircuit string, dur time.Duration) {
	tmpl := ""
	if rc.route != nil {
		tmpl = rc.route.Template.Raw
	}
	a.log.Debug("request", obslog.RequestFields(req.Method(), req.Path(), tmpl, resp.Status, shortCircuit, dur.Microseconds())...)
}

var knownMethods = map[string]struct{}{
	"GET": {}, "HEAD": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, "OPTIONS": {},
}

// stepKnownMethod rejects methods the machine has never heard of (the
// Webmachine b12 analogue): a method outside the small set this module
// understands is 501, not 404 — 404 means "no route for this path", not "I
// don't speak this verb at all".
func (rc *requestContext) stepKnownMethod() *Response {
	if _, ok := knownMethods[rc.req.Method()]; !ok {
		return rc.fail(rmerrors.New(rmerrors.KindNotImplemented, rc.req.Method(), fmt.Errorf("restmachine: unrecognized HTTP method %q", rc.req.Method())))
	}
	return nil
}

func (rc *requestContext) stepURITooLong() *Response {
	limit := rc.app.uriTooLongLimit
	if limit > 0 && len(rc.req.Path()) > limit {
		return rc.fail(rmerrors.New(rmerrors.KindUriTooLong, "", fmt.Errorf("restmachine: request path exceeds %d bytes", limit)))
	}
	return nil
}

func (rc *requestContext) stepRouteExists() *Response {
	match := rc.app.registry.Match(rc.req.Method(), rc.req.Path())
	if !match.Found {
		if len(match.AllowedMethods) > 0 {
			headers := newAllowHeader(match.AllowedMethods)
			return rc.failWithHeaders(rmerrors.New(rmerrors.KindMethodNotAllowed, rc.req.Method(), fmt.Errorf("restmachine: method not allowed, allowed: %s", strings.Join(match.AllowedMethods, ", "))), headers)
		}
		return rc.fail(rmerrors.New(rmerrors.KindRouteNotFound, rc.req.Path(), fmt.Errorf("restmachine: no route for %s %s", rc.req.Method(), rc.req.Path())))
	}
	rc.route = match.Match.Route
	rc.req = rc.req.withPathParams(match.Match.PathParams)
	rc.scope = rc.app.container.NewScope(rc.ctx, rc.req)
	return nil
}

func (rc *requestContext) stepServiceAvailable() *Response {
	if !rc.route.Capabilities.NeedsServiceAvailableCheck {
		return nil
	}
	available, failure := rc.resolveBool(container.KindServiceAvailability)
	if failure != nil {
		return rc.fail(failure)
	}
	if !available {
		return rc.fail(rmerrors.New(rmerrors.KindServiceUnavailable, rc.route.DecisionDeps[container.KindServiceAvailability], fmt.Errorf("restmachine: service reported unavailable")))
	}
	return nil
}

func (rc *requestContext) stepMalformed() *Response {
	if !rc.route.Capabilities.NeedsMalformedCheck {
		return nil
	}
	malformed, failure := rc.resolveBool(container.KindMalformed)
	if failure != nil {
		return rc.fail(failure)
	}
	if malformed {
		return rc.fail(rmerrors.New(rmerrors.KindBadRequest, rc.route.DecisionDeps[container.KindMalformed], fmt.Errorf("restmachine: request reported malformed")))
	}
	return nil
}

func (rc *requestContext) stepAuthorized() *Response {
	if !rc.route.Capabilities.NeedsAuthorization {
		return nil
	}
	ok, failure := rc.resolveBool(container.KindAuthorization)
	if failure != nil {
		return rc.fail(failure)
	}
	if !ok {
		return rc.fail(rmerrors.New(rmerrors.KindUnauthorized, rc.route.DecisionDeps[container.KindAuthorization], fmt.Errorf("restmachine: request not authorized")))
	}
	return nil
}

func (rc *requestContext) stepForbidden() *Response {
	if !rc.route.Capabilities.NeedsForbiddenCheck {
		return nil
	}
	forbidden, failure := rc.resolveBool(container.KindForbidden)
	if failure != nil {
		return rc.fail(failure)
	}
	if forbidden {
		return rc.fail(rmerrors.New(rmerrors.KindForbidden, rc.route.DecisionDeps[container.KindForbidden], fmt.Errorf("restmachine: request forbidden")))
	}
	return nil
}

// stepContentHeadersValid rejects a present-but-empty Content-Type, then
// confirms a parser is registered for whatever media type the body claims
// to be in. Both checks belong here rather than at content_types_accepted:
// the latter runs after resource_exists/conditional/content_types_provided,
// so a request whose Content-Type no parser can handle must still fail with
// 415 before the machine spends work deciding whether the resource exists.
// stepContentTypesAccepted only does the actual parse, against rc.parser
// selected here.
func (rc *requestContext) stepContentHeadersValid() *Response {
	if !rc.req.Headers().Has("Content-Type") {
		return nil
	}
	mediaType, _ := negotiate.ParseContentType(rc.req.Headers().Get("Content-Type"))
	if mediaType == "" {
		return rc.fail(rmerrors.New(rmerrors.KindBadRequest, "", fmt.Errorf("restmachine: empty Content-Type header")))
	}

	if len(rc.req.Body()) == 0 {
		return nil
	}
	candidates := append(append([]negotiate.Parser{}, rc.route.Parsers...), rc.app.defaultParsers...)
	if len(candidates) == 0 {
		return nil
	}
	contentType := rc.req.Headers().Get("Content-Type")
	p, ok := negotiate.SelectParser(contentType, candidates)
	if !ok {
		return rc.fail(rmerrors.New(rmerrors.KindUnsupportedMediaType, contentType, rmerrors.ErrNoParserForMediaType))
	}
	rc.parser = p
	return nil
}

// stepResourceExists resolves existence plus any bound ETag/Last-Modified
// providers, populating rc.resource for both the conditional node and the
// success-path validator headers set at render time (spec.md §4.5).
func (rc *requestContext) stepResourceExists() *Response {
	rc.resource.Exists = true
	if _, ok := rc.route.DecisionDeps[container.KindResourceExistence]; ok {
		exists, failure := rc.resolveBool(container.KindResourceExistence)
		if failure != nil {
			return rc.fail(failure)
		}
		rc.resource.Exists = exists
	}

	if dep, ok := rc.route.DecisionDeps[container.KindETagProvider]; ok {
		v, failure := rc.scope.Resolve(dep)
		if failure != nil {
			return rc.fail(failure)
		}
		if tag, ok := v.(string); ok && tag != "" {
			rc.resource.ETag = tag
			rc.resource.HasETag = true
		}
	}

	if dep, ok := rc.route.DecisionDeps[container.KindLastModifiedHook]; ok {
		v, failure := rc.scope.Resolve(dep)
		if failure != nil {
			return rc.fail(failure)
		}
		if ts, ok := v.(time.Time); ok && !ts.IsZero() {
			rc.resource.LastModified = ts
			rc.resource.HasLastModified = true
		}
	}

	if !rc.resource.Exists && rc.req.Method() != "POST" {
		return rc.fail(rmerrors.New(rmerrors.KindRouteNotFound, rc.route.DecisionDeps[container.KindResourceExistence], fmt.Errorf("restmachine: resource does not exist")))
	}
	return nil
}

func (rc *requestContext) stepConditional() *Response {
	if !rc.route.Capabilities.NeedsConditional {
		return nil
	}
	req := conditional.Request{
		Method:      rc.req.Method(),
		IfMatch:     conditional.ParseTags(rc.req.Headers().Get("If-Match")),
		IfNoneMatch: conditional.ParseTags(rc.req.Headers().Get("If-None-Match")),
	}
	if v := rc.req.Headers().Get("If-Modified-Since"); v != "" {
		if t, err := time.Parse(time.RFC1123, v); err == nil {
			req.IfModifiedSince = &t
		}
	}
	if v := rc.req.Headers().Get("If-Unmodified-Since"); v != "" {
		if t, err := time.Parse(time.RFC1123, v); err == nil {
			req.IfUnmodifiedSince = &t
		}
	}

	switch conditional.Evaluate(req, rc.resource) {
	case conditional.NotModified:
		return rc.failWithHeaders(rmerrors.New(rmerrors.KindNotModified, "", fmt.Errorf("restmachine: not modified")), rc.validatorHeaders())
	case conditional.PreconditionFailed:
		return rc.failWithHeaders(rmerrors.New(rmerrors.KindPreconditionFailed, "", fmt.Errorf("restmachine: precondition failed")), rc.validatorHeaders())
	}
	return nil
}

// validatorHeaders builds the ETag/Last-Modified header set from the
// resource's bound cache validators, for the short-circuit responses
// (304, 412) that bypass stepExecuteAndRender but must still carry them
// (RFC 7232 §4.1 requires ETag on 304, not just on 200).
func (rc *requestContext) validatorHeaders() map[string][]string {
	headers := make(map[string][]string)
	if rc.resource.HasETag {
		headers["ETag"] = []string{rc.resource.ETag}
	}
	if rc.resource.HasLastModified {
		headers["Last-Modified"] = []string{rc.resource.LastModified.UTC().Format(time.RFC1123)}
	}
	return headers
}

func (rc *requestContext) stepContentTypesProvided() *Response {
	candidates := append(append([]negotiate.Renderer{}, rc.route.Renderers...), rc.app.defaultRenderers...)
	if len(candidates) == 0 {
		return nil
	}
	accept := rc.req.Headers().Get("Accept")
	r, ok := negotiate.SelectRenderer(accept, candidates)
	if !ok {
		return rc.fail(rmerrors.New(rmerrors.KindNotAcceptable, accept, rmerrors.ErrNoRendererMatched))
	}
	rc.renderer = r
	return nil
}

func (rc *requestContext) stepContentTypesAccepted() *Response {
	if rc.parser == nil {
		return nil
	}

	parsed, err := rc.parser.Parse(rc.req.Body())
	if err != nil {
		return rc.fail(rmerrors.New(rmerrors.KindBadRequest, rc.parser.MediaType, err))
	}
	rc.scope.SeedRequest("parsed_body", parsed)
	return nil
}

func (rc *requestContext) stepValidate() *Response {
	for _, name := range rc.route.Validators {
		if _, failure := rc.scope.Resolve(name); failure != nil {
			return rc.fail(failure)
		}
	}
	return nil
}

func (rc *requestContext) stepExecuteAndRender() *Response {
	raw, failure := rc.scope.Resolve(rc.route.HandlerDep)
	if failure != nil {
		return rc.fail(failure)
	}

	hr := normalizeHandlerResult(raw)
	switch hr.kind {
	case returnExplicit:
		return hr.response
	case returnEmpty:
		return NewResponseBuilder().SetStatus(204).Build()
	}

	status := defaultStatus(rc.req.Method())
	if hr.kind == returnWithStatus || hr.kind == returnWithStatusAndHeaders {
		status = hr.status
	}

	builder := NewResponseBuilder().SetStatus(status)
	if rc.renderer != nil {
		body, err := rc.renderer.Render(hr.value)
		if err != nil {
			return rc.fail(rmerrors.New(rmerrors.KindHandlerError, rc.renderer.MediaType, err))
		}
		builder.SetBody(body).SetHeader("Content-Type", rc.renderer.MediaType)
	}
	if rc.resource.HasETag {
		builder.SetHeader("ETag", rc.resource.ETag)
	}
	if rc.resource.HasLastModified {
		builder.SetHeader("Last-Modified", rc.resource.LastModified.UTC().Format(time.RFC1123))
	}
	if hr.kind == returnWithStatusAndHeaders {
		builder.MergeHeaders(hr.headers)
	}
	return builder.Build()
}

// defaultStatus implements spec.md §4.6.1's default status rule: 201 for a
// POST that didn't explicitly override, 200 otherwise.
func defaultStatus(method string) int {
	if method == "POST" {
		return 201
	}
	return 200
}

// resolveBool resolves the decision dependency bound to kind on the current
// route and coerces its result to bool.
func (rc *requestContext) resolveBool(kind container.Kind) (bool, *rmerrors.Failure) {
	dep := rc.route.DecisionDeps[kind]
	v, failure := rc.scope.Resolve(dep)
	if failure != nil {
		return false, failure
	}
	b, ok := v.(bool)
	if !ok {
		return false, rmerrors.New(rmerrors.KindDependencyError, dep, fmt.Errorf("restmachine: decision dependency %q returned %T, want bool", dep, v))
	}
	return b, nil
}

func (rc *requestContext) fail(f *rmerrors.Failure) *Response {
	return rc.app.buildError(rc.ctx, f, rc.req, nil)
}

func (rc *requestContext) failWithHeaders(f *rmerrors.Failure, headers map[string][]string) *Response {
	return rc.app.buildError(rc.ctx, f, rc.req, headers)
}

func newAllowHeader(methods []string) map[string][]string {
	return map[string][]string{"Allow": {strings.Join(methods, ", ")}}
}
