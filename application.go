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

// Package restmachine is a Webmachine-style HTTP decision state machine
// wired to a pytest-style dependency injection container: routes declare
// what they need by name, the container resolves and caches it at the
// right scope, and the decision machine walks a fixed set of nodes,
// skipping whichever ones a route's registration didn't ask for.
//
// The core never listens on a socket, parses a request from bytes, or
// serializes a response to bytes — an adapter owns transport, builds a
// Request, calls Application.Execute, and writes the resulting Response.
package restmachine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rivaas-dev/restmachine/container"
	"github.com/rivaas-dev/restmachine/header"
	"github.com/rivaas-dev/restmachine/negotiate"
	"github.com/rivaas-dev/restmachine/obslog"
	"github.com/rivaas-dev/restmachine/render"
	"github.com/rivaas-dev/restmachine/rmerrors"
	"github.com/rivaas-dev/restmachine/rmmetrics"
	"github.com/rivaas-dev/restmachine/route"
)

// Application is the facade described in spec.md §4.7: the global
// dependency registry, the route registry, and the configuration the
// decision machine reads while executing a request.
type Application struct {
	mu sync.Mutex

	container *container.Container
	registry  *route.Registry

	log         *slog.Logger
	metrics     *rmmetrics.Recorder
	diagnostics DiagnosticHandler

	uriTooLongLimit  int
	defaultRenderers []negotiate.Renderer
	defaultParsers   []negotiate.Parser

	errorHandlers       map[errorKey]ErrorHandler
	defaultErrorHandler ErrorHandler

	started bool
}

// New constructs an Application. Without options it logs nowhere, emits no
// metrics, accepts a URI up to 8192 bytes, and renders/parses
// application/json by default (spec.md §3.1 "default renderer set (at
// minimum: application/json)").
func New(opts ...Option) *Application {
	a := &Application{
		container:        container.New(),
		registry:         route.NewRegistry(),
		log:              obslog.Noop(),
		metrics:          &rmmetrics.Recorder{},
		uriTooLongLimit:  8192,
		defaultRenderers: []negotiate.Renderer{render.JSON.Renderer},
		defaultParsers:   []negotiate.Parser{render.JSON.Parser},
		errorHandlers:    make(map[errorKey]ErrorHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.container.OnCacheAccess(a.metrics.RecordCache)
	return a
}

// Execute runs req through the decision state machine and returns the
// terminal Response (spec.md §4.7 "execute(request) -> response").
func (a *Application) Execute(ctx context.Context, req *Request) *Response {
	return a.execute(ctx, req)
}

// Dependency registers a named, non-decision value dependency — the
// ordinary case for shared fixtures like a database handle or a
// configuration struct (spec.md §3.1 "Dependency descriptor").
func (a *Application) Dependency(name string, scope container.Scope, params []string, fn any) error {
	return a.container.Register(container.Dependency{Name: name, Scope: scope, Params: params, Fn: fn, Kind: container.KindValue})
}

// OnStartup registers a SESSION-scoped dependency that Startup resolves
// eagerly, in registration order, and seeds into the SESSION cache under
// name (spec.md §6 "Lifecycle hooks").
func (a *Application) OnStartup(name string, params []string, fn any) error {
	return a.container.Register(container.Dependency{Name: name, Scope: container.Session, Params: params, Fn: fn, Kind: container.KindStartup})
}

// OnShutdown registers a dependency Shutdown resolves, in reverse
// registration order, after every startup hook has run — typically to
// close a resource a startup hook opened.
func (a *Application) OnShutdown(name string, params []string, fn any) error {
	return a.container.Register(container.Dependency{Name: name, Scope: container.Session, Params: params, Fn: fn, Kind: container.KindShutdown})
}

// startupView is the RequestView the container sees while resolving
// lifecycle hooks, which run outside any request.
type startupView struct{}

func (startupView) Method() string                   { return "" }
func (startupView) Path() string                     { return "" }
func (startupView) PathParam(string) (string, bool)  { return "", false }
func (startupView) PathParams() map[string]string    { return map[string]string{} }
func (startupView) QueryParams() map[string][]string { return map[string][]string{} }
func (startupView) Headers() *header.Map             { return header.New() }
func (startupView) Body() []byte                     { return nil }
func (startupView) RequestID() string                { return "" }

// Startup resolves every OnStartup dependency, in registration order. An
// adapter calls this once before serving traffic.
func (a *Application) Startup(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	scope := a.container.NewScope(ctx, startupView{})
	for _, name := range a.container.Names() {
		dep, _ := a.container.Lookup(name)
		if dep.Kind != container.KindStartup {
			continue
		}
		v, failure := scope.Resolve(name)
		if failure != nil {
			return fmt.Errorf("restmachine: startup hook %q: %w", name, failure)
		}
		a.container.SeedSession(name, v)
	}
	a.started = true
	return nil
}

// Shutdown resolves every OnShutdown dependency, in reverse registration
// order, then emits a DiagSessionNeverResolved diagnostic for any SESSION
// dependency that was registered but never resolved during the process
// lifetime.
func (a *Application) Shutdown(ctx context.Context) error {
	names := a.container.Names()
	scope := a.container.NewScope(ctx, startupView{})
	for i := len(names) - 1; i >= 0; i-- {
		dep, _ := a.container.Lookup(names[i])
		if dep.Kind != container.KindShutdown {
			continue
		}
		if _, failure := scope.Resolve(names[i]); failure != nil {
			return fmt.Errorf("restmachine: shutdown hook %q: %w", names[i], failure)
		}
	}

	for _, name := range names {
		dep, _ := a.container.Lookup(name)
		if dep.Scope != container.Session {
			continue
		}
		if _, ok := a.container.SessionValue(name); !ok {
			a.emit(DiagSessionNeverResolved, "session dependency never resolved", map[string]any{"name": name})
		}
	}
	return nil
}

// errorKey selects a registered ErrorHandler by status and negotiated
// media type (spec.md §4.8 "selection: most specific match by (status,
// media type) -> (status) -> default").
type errorKey struct {
	status    int
	mediaType string
}

// ErrorHandler builds a Response body for a failure the decision machine
// produced. Returning nil falls through to the next most general handler.
type ErrorHandler func(ctx context.Context, failure *rmerrors.Failure, req *Request) *Response

// ErrorHandlerFor registers h for the given status and media type.
func (a *Application) ErrorHandlerFor(status int, mediaType string, h ErrorHandler) {
	a.errorHandlers[errorKey{status, mediaType}] = h
}

// ErrorHandlerForStatus registers h for every media type at status.
func (a *Application) ErrorHandlerForStatus(status int, h ErrorHandler) {
	a.errorHandlers[errorKey{status, ""}] = h
}

// DefaultErrorHandler registers the fallback used when no (status,
// media-type) or (status) handler matches.
func (a *Application) DefaultErrorHandler(h ErrorHandler) {
	a.defaultErrorHandler = h
}

// RouteInfo is a read-only snapshot of a registered route, for building
// documentation or an OpenAPI exporter outside the core (SPEC_FULL.md §5
// "Route introspection").
type RouteInfo struct {
	Method       string
	Path         string
	Name         string
	Capabilities route.Capabilities
}

// Routes returns a snapshot of every registered route.
func (a *Application) Routes() []RouteInfo {
	routes := a.registry.Routes()
	out := make([]RouteInfo, len(routes))
	for i, r := range routes {
		out[i] = RouteInfo{Method: r.Method, Path: r.Template.Raw, Name: r.Name, Capabilities: r.Capabilities}
	}
	return out
}

// URLFor expands the path template of the route registered under name
// (SPEC_FULL.md §5 "Named routes and reverse URL generation").
func (a *Application) URLFor(name string, params map[string]string) (string, error) {
	r, ok := a.registry.ByName(name)
	if !ok {
		return "", fmt.Errorf("restmachine: no route named %q", name)
	}
	return r.Template.Expand(params)
}

// Mount copies every route and dependency of sub into a under prefix,
// detecting name collisions as a configuration error (spec.md §3.3;
// SPEC_FULL.md §5 "Mount for sub-application composition").
func (a *Application) Mount(prefix string, sub *Application) error {
	for _, name := range sub.container.Names() {
		dep, _ := sub.container.Lookup(name)
		if err := a.container.Register(dep); err != nil {
			return fmt.Errorf("restmachine: mount %q: %w", prefix, err)
		}
	}
	for _, r := range sub.registry.Routes() {
		tmpl, err := route.Compile(prefix + r.Template.Raw)
		if err != nil {
			return fmt.Errorf("restmachine: mount %q: %w", prefix, err)
		}
		mounted := route.New(r.Method, tmpl)
		mounted.Name = r.Name
		mounted.HandlerDep = r.HandlerDep
		mounted.DecisionDeps = r.DecisionDeps
		mounted.Validators = r.Validators
		mounted.Renderers = r.Renderers
		mounted.Parsers = r.Parsers
		mounted.Freeze()
		if err := a.registry.Add(mounted); err != nil {
			return fmt.Errorf("restmachine: mount %q: %w", prefix, err)
		}
	}
	return nil
}
