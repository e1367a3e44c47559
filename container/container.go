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

// Package container implements the pytest-style dependency injection
// container described in spec.md §4.2: dependencies are registered by name,
// a callable declares what it needs by naming parameters, and the container
// resolves a per-request graph while caching results at the correct scope.
//
// Register validates each callable once with reflection: its argument count
// against the declared parameter names, and its (value) or (value, error)
// return shape. Resolve still binds parameters by name at request time and
// goes through reflection to adapt each argument to its declared type and to
// call the function.
package container

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rivaas-dev/restmachine/header"
	"github.com/rivaas-dev/restmachine/rmerrors"
)

// Scope is the lifetime over which a resolved value is cached (spec.md §3.1).
type Scope int

const (
	// Request-scoped values are cached for a single request only.
	Request Scope = iota
	// Session-scoped values are cached for the lifetime of the process.
	Session
)

func (s Scope) String() string {
	if s == Session {
		return "session"
	}
	return "request"
}

// Kind tags what a dependency's result means to the decision machine
// (spec.md §3.1 "Dependency descriptor").
type Kind string

const (
	KindValue               Kind = "value"
	KindDecisionCallback    Kind = "decision-callback"
	KindValidator           Kind = "validator"
	KindRendererSelector    Kind = "renderer-selector"
	KindETagProvider        Kind = "etag-provider"
	KindLastModifiedHook    Kind = "last-modified-provider"
	KindResourceExistence   Kind = "resource-existence"
	KindAuthorization       Kind = "authorization"
	KindForbidden           Kind = "forbidden"
	KindServiceAvailability Kind = "service-available"
	KindMalformed           Kind = "malformed"
	KindStartup             Kind = "startup"
	KindShutdown            Kind = "shutdown"
)

// RequestView is the minimal read-only surface the container needs in order
// to produce synthetic dependencies (spec.md §4.2 step 2). The restmachine
// package's *Request satisfies it; the container never imports that package,
// which keeps container usable (and testable) standalone.
type RequestView interface {
	Method() string
	Path() string
	PathParam(name string) (string, bool)
	PathParams() map[string]string
	QueryParams() map[string][]string
	Headers() *header.Map
	Body() []byte
	RequestID() string
}

// syntheticNames are the well-known identifiers the container produces
// directly from the current request, without a registered descriptor.
var syntheticNames = map[string]struct{}{
	"request":         {},
	"path_params":     {},
	"query_params":    {},
	"request_headers": {},
	"json_body":       {},
	"body":            {},
	"ctx":             {},
	"request_id":      {},
}

// IsSynthetic reports whether name is a well-known synthetic identifier.
func IsSynthetic(name string) bool {
	_, ok := syntheticNames[name]
	return ok
}

// Dependency is a registration-time descriptor (spec.md §3.1).
type Dependency struct {
	Name   string
	Scope  Scope
	Params []string // declared parameter names, positional, matching Fn's arguments
	Fn     any       // func(<params...>) (T, error) | func(<params...>) T
	Kind   Kind
}

// compiled is a Dependency whose callable Register has validated via
// reflection; Resolve invokes it through fnVal.
type compiled struct {
	dep       Dependency
	fnVal     reflect.Value
	hasErrOut bool
}

// Container is the global dependency registry (spec.md §3.1 "Application:
// global dependency registry"). It is populated during application setup
// and is safe for concurrent Resolve calls once registration has settled;
// registering new dependencies concurrently with resolution is not
// supported, matching the "configuration error detected at registration"
// model in spec.md §3.3.
type Container struct {
	mu    sync.RWMutex
	deps  map[string]*compiled
	order []string // registration order, used to run startup/shutdown in order

	sessionMu     sync.Mutex
	sessionCache  map[string]any
	sessionInFlight map[string]*sessionCall

	onCacheAccess func(ctx context.Context, scope string, hit bool)
}

// OnCacheAccess installs fn to be called on every dependency resolution
// with the scope ("request" or "session") and whether the value was served
// from cache rather than freshly produced. Wired to rmmetrics.Recorder's
// cache-hit/miss counters; nil disables the callback.
func (c *Container) OnCacheAccess(fn func(ctx context.Context, scope string, hit bool)) {
	c.onCacheAccess = fn
}

func (c *Container) reportCacheAccess(ctx context.Context, scope string, hit bool) {
	if c.onCacheAccess != nil {
		c.onCacheAccess(ctx, scope, hit)
	}
}

type sessionCall struct {
	done  chan struct{}
	value any
	err   *rmerrors.Failure
}

// New returns an empty Container.
func New() *Container {
	return &Container{
		deps:            make(map[string]*compiled),
		sessionCache:    make(map[string]any),
		sessionInFlight: make(map[string]*sessionCall),
	}
}

// Register compiles and stores dep. It returns an error if the name is a
// reserved synthetic, already registered (spec.md §3.3 "A dependency name is
// unique within the global registry"), or Fn's arity doesn't match
// len(Params).
func (c *Container) Register(dep Dependency) error {
	if IsSynthetic(dep.Name) {
		return fmt.Errorf("restmachine: dependency name %q shadows a synthetic: %w", dep.Name, rmerrors.ErrDuplicateDependency)
	}

	fnVal := reflect.ValueOf(dep.Fn)
	if fnVal.Kind() != reflect.Func {
		return fmt.Errorf("restmachine: dependency %q: Fn must be a function", dep.Name)
	}
	fnType := fnVal.Type()
	if fnType.NumIn() != len(dep.Params) {
		return fmt.Errorf("restmachine: dependency %q declares %d params but Fn takes %d arguments",
			dep.Name, len(dep.Params), fnType.NumIn())
	}
	if fnType.NumOut() == 0 || fnType.NumOut() > 2 {
		return fmt.Errorf("restmachine: dependency %q: Fn must return (value) or (value, error)", dep.Name)
	}
	hasErrOut := false
	if fnType.NumOut() == 2 {
		errType := reflect.TypeOf((*error)(nil)).Elem()
		if !fnType.Out(1).Implements(errType) {
			return fmt.Errorf("restmachine: dependency %q: second return value must be error", dep.Name)
		}
		hasErrOut = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.deps[dep.Name]; exists {
		return fmt.Errorf("restmachine: dependency %q: %w", dep.Name, rmerrors.ErrDuplicateDependency)
	}
	c.deps[dep.Name] = &compiled{dep: dep, fnVal: fnVal, hasErrOut: hasErrOut}
	c.order = append(c.order, dep.Name)
	return nil
}

// Lookup returns the descriptor registered under name, if any.
func (c *Container) Lookup(name string) (Dependency, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cd, ok := c.deps[name]
	if !ok {
		return Dependency{}, false
	}
	return cd.dep, true
}

// Names returns every registered dependency name in registration order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Container) lookupCompiled(name string) (*compiled, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cd, ok := c.deps[name]
	return cd, ok
}

// Scope is a per-request resolution frame layered over the Container's
// session cache (spec.md §3.4 "per-request DI scope (empty cache layered
// over SESSION cache)"). A Scope must not be shared across requests or
// goroutines.
type Scope struct {
	c        *Container
	ctx      context.Context
	view     RequestView
	cache    map[string]any
	resolving map[string]struct{}
}

// NewScope allocates a per-request resolution frame for req.
func (c *Container) NewScope(ctx context.Context, view RequestView) *Scope {
	return &Scope{
		c:         c,
		ctx:       ctx,
		view:      view,
		cache:     make(map[string]any),
		resolving: make(map[string]struct{}),
	}
}

// SeedRequest injects value into this Scope's REQUEST cache under name,
// bypassing resolution. The decision machine uses this to publish the
// content-negotiated parse of the request body (the parser bound to the
// matched Content-Type may not be the "json_body" synthetic's JSON decode),
// so handlers and validators can declare name as a parameter like any other
// dependency.
func (s *Scope) SeedRequest(name string, value any) {
	s.cache[name] = value
}

// Resolve implements the algorithm of spec.md §4.2.
func (s *Scope) Resolve(name string) (any, *rmerrors.Failure) {
	if v, ok := s.cache[name]; ok {
		if s.c != nil {
			s.c.reportCacheAccess(s.ctx, "request", true)
		}
		return v, nil
	}
	if s.c != nil {
		if v, ok := s.c.getSession(name); ok {
			s.c.reportCacheAccess(s.ctx, "session", true)
			return v, nil
		}
	}

	if IsSynthetic(name) {
		v, err := s.resolveSynthetic(name)
		if err != nil {
			return nil, err
		}
		s.cache[name] = v
		return v, nil
	}

	cd, ok := s.c.lookupCompiled(name)
	if !ok {
		return nil, rmerrors.New(rmerrors.KindUnknownDependency, name, rmerrors.ErrUnknownDependency)
	}

	if _, inFlight := s.resolving[name]; inFlight {
		return nil, rmerrors.New(rmerrors.KindDependencyCycle, name, rmerrors.ErrDependencyCycle)
	}

	if cd.dep.Scope == Session {
		return s.c.resolveSession(s, cd)
	}

	return s.resolveRequest(cd)
}

// resolveRequest resolves a REQUEST-scoped dependency within this Scope.
func (s *Scope) resolveRequest(cd *compiled) (any, *rmerrors.Failure) {
	s.resolving[cd.dep.Name] = struct{}{}
	defer delete(s.resolving, cd.dep.Name)

	args, failure := s.bindArgs(cd)
	if failure != nil {
		return nil, failure
	}

	v, callErr := invoke(cd, args)
	if callErr != nil {
		return nil, wrapCallError(cd.dep.Name, callErr)
	}

	s.cache[cd.dep.Name] = v
	if s.c != nil {
		s.c.reportCacheAccess(s.ctx, "request", false)
	}
	return v, nil
}

// wrapCallError preserves a Failure a dependency's Fn already constructed
// (e.g. validate.Struct returning rmerrors.WithStatus) instead of flattening
// it into a generic KindDependencyError, so a validator's 422 or a decode
// helper's 400 survives up to the decision machine.
func wrapCallError(name string, callErr error) *rmerrors.Failure {
	var f *rmerrors.Failure
	if errors.As(callErr, &f) {
		if f.Name == "" {
			f.Name = name
		}
		return f
	}
	return rmerrors.New(rmerrors.KindDependencyError, name, callErr)
}

// bindArgs resolves each of cd's declared parameters, in order, recursing
// through Resolve so nested dependencies participate in the same cycle
// detection and caching (spec.md §4.2 "Parameter binding").
func (s *Scope) bindArgs(cd *compiled) ([]reflect.Value, *rmerrors.Failure) {
	args := make([]reflect.Value, len(cd.dep.Params))
	for i, pname := range cd.dep.Params {
		v, failure := s.Resolve(pname)
		if failure != nil {
			return nil, failure
		}
		args[i] = coerce(v, cd.fnVal.Type().In(i))
	}
	return args, nil
}

// coerce adapts a resolved value to the declared parameter type where a
// direct assignment isn't possible (most commonly nil -> a nilable type).
func coerce(v any, want reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(want)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(want) {
		return rv
	}
	if rv.Type().ConvertibleTo(want) {
		return rv.Convert(want)
	}
	// Fall back to an interface-typed slot; a genuine mismatch surfaces as a
	// panic from reflect.Value.Call, which invoke() below recovers into a
	// Failure(kind=underlying-error).
	return rv
}

func invoke(cd *compiled, args []reflect.Value) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restmachine: dependency %q panicked: %v", cd.dep.Name, r)
		}
	}()
	out := cd.fnVal.Call(args)
	if cd.hasErrOut {
		if errVal := out[1].Interface(); errVal != nil {
			return nil, errVal.(error)
		}
	}
	return out[0].Interface(), nil
}

// resolveSynthetic produces a value the container can derive directly from
// the current request, per spec.md §4.2 step 2.
func (s *Scope) resolveSynthetic(name string) (any, *rmerrors.Failure) {
	switch name {
	case "request":
		return s.view, nil
	case "path_params":
		return s.view.PathParams(), nil
	case "query_params":
		return s.view.QueryParams(), nil
	case "request_headers":
		return s.view.Headers(), nil
	case "body":
		return s.view.Body(), nil
	case "json_body":
		return decodeJSONBody(s.view.Body())
	case "ctx":
		if s.ctx != nil {
			return s.ctx, nil
		}
		return context.Background(), nil
	case "request_id":
		return s.view.RequestID(), nil
	default:
		return nil, rmerrors.New(rmerrors.KindUnknownDependency, name, rmerrors.ErrUnknownDependency)
	}
}

// getSession returns a previously-resolved SESSION value without taking the
// single-flight path (fast path for the common "already populated" case).
func (c *Container) getSession(name string) (any, bool) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	v, ok := c.sessionCache[name]
	return v, ok
}

// resolveSession implements single-flight SESSION resolution (spec.md §5
// "concurrent first-time resolution of the same SESSION dependency invokes
// the producer exactly once; other callers wait and receive the same
// value").
func (c *Container) resolveSession(s *Scope, cd *compiled) (any, *rmerrors.Failure) {
	c.sessionMu.Lock()
	if v, ok := c.sessionCache[cd.dep.Name]; ok {
		c.sessionMu.Unlock()
		return v, nil
	}
	if call, inFlight := c.sessionInFlight[cd.dep.Name]; inFlight {
		c.sessionMu.Unlock()
		<-call.done
		if call.err != nil {
			return nil, call.err
		}
		return call.value, nil
	}

	call := &sessionCall{done: make(chan struct{})}
	c.sessionInFlight[cd.dep.Name] = call
	c.sessionMu.Unlock()
	c.reportCacheAccess(s.ctx, "session", false)

	s.resolving[cd.dep.Name] = struct{}{}
	defer delete(s.resolving, cd.dep.Name)

	args, failure := s.bindArgs(cd)
	if failure == nil {
		v, callErr := invoke(cd, args)
		if callErr != nil {
			failure = wrapCallError(cd.dep.Name, callErr)
		} else {
			call.value = v
		}
	}
	call.err = failure

	c.sessionMu.Lock()
	if failure == nil {
		c.sessionCache[cd.dep.Name] = call.value
	}
	delete(c.sessionInFlight, cd.dep.Name)
	c.sessionMu.Unlock()
	close(call.done)

	if failure != nil {
		return nil, failure
	}
	return call.value, nil
}

// SeedSession installs value directly into the SESSION cache under name,
// bypassing resolution. Used by Application.Startup to publish the return
// value of an on_startup handler (spec.md §6 "Lifecycle hooks").
func (c *Container) SeedSession(name string, value any) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	c.sessionCache[name] = value
}

// SessionValue returns a previously-seeded or resolved SESSION value.
func (c *Container) SessionValue(name string) (any, bool) {
	return c.getSession(name)
}
