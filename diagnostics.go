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

// DiagnosticEvent represents an application diagnostic or anomaly. These
// are informational events that may indicate a configuration issue; the
// Application functions correctly whether they are collected or not.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	// DiagRouteNoRenderer fires when Handle registers a route that has no
	// route-local renderer while the Application has no default renderer.
	DiagRouteNoRenderer DiagnosticKind = "route_no_renderer"
	// DiagSessionNeverResolved fires at Shutdown for any SESSION dependency
	// that was registered but never resolved during the process lifetime.
	DiagSessionNeverResolved DiagnosticKind = "session_dependency_unused"
	// DiagValidatorAfterUse names a validator registered on a route that has
	// already served a request. RouteBuilder only adds validators before
	// Handle registers the route, so the Application never emits this kind.
	DiagValidatorAfterUse DiagnosticKind = "validator_registered_after_use"
	// DiagRouteRegistered fires once per successful route registration,
	// useful for startup logging.
	DiagRouteRegistered DiagnosticKind = "route_registered"
)

// DiagnosticHandler receives diagnostic events from the Application.
// Implementations may log, emit metrics, trace events, or ignore them.
type DiagnosticHandler interface {
	HandleDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc adapts a function to DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) HandleDiagnostic(e DiagnosticEvent) { f(e) }

func (a *Application) emit(kind DiagnosticKind, msg string, fields map[string]any) {
	if a.diagnostics == nil {
		return
	}
	a.diagnostics.HandleDiagnostic(DiagnosticEvent{Kind: kind, Message: msg, Fields: fields})
}
